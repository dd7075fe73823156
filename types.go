package citeplug

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Kind is the fine-grained tag returned by TypeOf.
type Kind string

const (
	KindUndefined Kind = "Undefined"
	KindNull      Kind = "Null"
	KindString    Kind = "String"
	KindNumber    Kind = "Number"
	KindBoolean   Kind = "Boolean"
	KindArray     Kind = "Array"
	KindObject    Kind = "Object"
	KindFunction  Kind = "Function"
	KindRegExp    Kind = "RegExp"
	KindDate      Kind = "Date"
)

// DataType is the coarse structural bucket used to pick candidate formats.
type DataType string

const (
	String        DataType = "String"
	Array         DataType = "Array"
	SimpleObject  DataType = "SimpleObject"
	ComplexObject DataType = "ComplexObject"
	Primitive     DataType = "Primitive"
)

// DataTypes lists every valid DataType in declaration order.
var DataTypes = []DataType{String, Array, SimpleObject, ComplexObject, Primitive}

// Valid reports whether d is one of DataTypes.
func (d DataType) Valid() bool {
	switch d {
	case String, Array, SimpleObject, ComplexObject, Primitive:
		return true
	}
	return false
}

type undefined struct{}

// Undefined stands for an absent value, distinct from nil (Null).
var Undefined any = undefined{}

// TypeOf returns the fine-grained kind of v. Values without a dedicated kind
// (structs, pointers, channels, maps with non-string keys) report their Go
// type name.
func TypeOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindNull
	case undefined:
		return KindUndefined
	case string:
		return KindString
	case bool:
		return KindBoolean
	case json.Number:
		return KindNumber
	case *regexp.Regexp:
		if x == nil {
			return KindNull
		}
		return KindRegExp
	case time.Time:
		return KindDate
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBoolean
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		return KindArray
	case reflect.Array:
		return KindArray
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Key().Kind() == reflect.String {
			return KindObject
		}
	case reflect.Func:
		if rv.IsNil() {
			return KindNull
		}
		return KindFunction
	case reflect.Pointer, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			return KindNull
		}
	}
	t := rv.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return Kind(t.Name())
	}
	return Kind(t.String())
}

// DataTypeOf maps v to one of the five DataType buckets. It is total.
func DataTypeOf(v any) DataType {
	switch TypeOf(v) {
	case KindString:
		return String
	case KindArray:
		return Array
	case KindObject:
		return SimpleObject
	case KindUndefined, KindNull, KindNumber, KindBoolean, KindFunction:
		return Primitive
	}
	return ComplexObject
}

// KindName names the kind of v the way validation messages spell observed
// types: lower case for the basic kinds, the Kind itself otherwise.
func KindName(v any) string {
	switch k := TypeOf(v); k {
	case KindUndefined, KindNull, KindString, KindNumber, KindBoolean, KindArray, KindObject, KindFunction:
		return strings.ToLower(string(k))
	default:
		return string(k)
	}
}
