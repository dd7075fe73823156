package citeplug

import (
	"context"
	"fmt"
	"sync"
)

// ParseFunc converts a raw value into the canonical model.
type ParseFunc func(input any) (any, error)

// AsyncParseFunc converts a raw value into the canonical model and may block
// on I/O; it runs on its own goroutine.
type AsyncParseFunc func(ctx context.Context, input any) (any, error)

// DataParser binds one conversion function to a sync or async slot.
type DataParser struct {
	parser any
	async  bool
}

// NewDataParser stores fn as given; call Validate before use. fn must be a
// ParseFunc, or for async parsers an AsyncParseFunc or ParseFunc.
func NewDataParser(fn any, async bool) *DataParser {
	return &DataParser{parser: fn, async: async}
}

// Async reports the slot the parser is bound to.
func (d *DataParser) Async() bool { return d.async }

// Validate checks that the stored parser is callable with a supported
// signature.
func (d *DataParser) Validate() error {
	if d.syncFunc() != nil || (d.async && d.asyncFunc() != nil) {
		return nil
	}
	expected := "function"
	if TypeOf(d.parser) == KindFunction {
		expected = "func(any) (any, error)"
		if d.async {
			expected += " or func(context.Context, any) (any, error)"
		}
	}
	return Issues{Root().Field("parser").Mismatch(CodeInvalidType, observed(d.parser), expected)}
}

func (d *DataParser) syncFunc() ParseFunc {
	switch f := d.parser.(type) {
	case ParseFunc:
		return f
	case func(any) (any, error):
		if f != nil {
			return f
		}
	}
	return nil
}

func (d *DataParser) asyncFunc() AsyncParseFunc {
	switch f := d.parser.(type) {
	case AsyncParseFunc:
		return f
	case func(context.Context, any) (any, error):
		if f != nil {
			return f
		}
	}
	if f := d.syncFunc(); f != nil {
		return func(_ context.Context, input any) (any, error) { return f(input) }
	}
	return nil
}

// Parse invokes the parser synchronously.
func (d *DataParser) Parse(input any) (any, error) {
	if f := d.syncFunc(); f != nil {
		return f(input)
	}
	return d.asyncFunc()(context.Background(), input)
}

// ParseAsync starts the parser on a new goroutine.
func (d *DataParser) ParseAsync(ctx context.Context, input any) *Deferred {
	return Go(ctx, func(ctx context.Context) (any, error) {
		return d.asyncFunc()(ctx, input)
	})
}

// Deferred is the pending result of an asynchronous parse.
type Deferred struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

// Go runs fn on a new goroutine and returns its Deferred result. A panic in
// fn resolves the Deferred with an error.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Deferred {
	d := &Deferred{done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.resolve(nil, fmt.Errorf("citeplug: parser panicked: %v", r))
			}
		}()
		v, err := fn(ctx)
		d.resolve(v, err)
	}()
	return d
}

// Resolved returns an already completed Deferred.
func Resolved(v any, err error) *Deferred {
	d := &Deferred{done: make(chan struct{})}
	d.resolve(v, err)
	return d
}

func (d *Deferred) resolve(v any, err error) {
	d.once.Do(func() {
		d.value, d.err = v, err
		close(d.done)
	})
}

// Done is closed once the result is available.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// Await blocks until the result is available or ctx is done. Giving up on
// the wait does not stop the underlying work.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryResult returns the result without blocking; ok is false while pending.
func (d *Deferred) TryResult() (v any, ok bool, err error) {
	select {
	case <-d.done:
		return d.value, true, d.err
	default:
		return nil, false, nil
	}
}
