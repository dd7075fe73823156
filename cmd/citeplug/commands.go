package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/citeplug"
	"github.com/reoring/citeplug/manifest"
)

var errNoMatch = errors.New("no registered format matches the input")

// readValue takes the input from args, or from stdin when it is absent or
// "-". With --json the text is decoded as JSON.
func (a *app) readValue(cmd *cobra.Command, args []string) (any, error) {
	var text string
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		text = strings.TrimRight(string(b), "\r\n")
	} else {
		text = args[0]
	}
	if !a.v.GetBool("json") {
		return text, nil
	}
	dec := j.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	return v, nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := j.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newTypeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "type [value|-]",
		Short: "Print the most specific format of a value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			v, err := a.readValue(cmd, args)
			if err != nil {
				return err
			}
			id, ok := reg.Type(v)
			if !ok {
				return errNoMatch
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}

func newParseCmd(a *app) *cobra.Command {
	var format string
	var async bool
	cmd := &cobra.Command{
		Use:   "parse [value|-]",
		Short: "Parse a value with the data parser of its format and print JSON",
		Long: `Parse resolves the format of the value (unless --format names one) and
runs the data parser bound to it. The result is printed as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			v, err := a.readValue(cmd, args)
			if err != nil {
				return err
			}
			id := format
			if id == "" {
				var ok bool
				if id, ok = reg.Type(v); !ok {
					return errNoMatch
				}
			}

			var out any
			if async {
				d, ok := reg.DataAsync(cmd.Context(), v, id)
				if !ok {
					return fmt.Errorf("format %s has no data parser", id)
				}
				out, err = d.Await(cmd.Context())
			} else {
				var ok bool
				out, ok, err = reg.Data(v, id)
				if !ok {
					return fmt.Errorf("format %s has no data parser", id)
				}
			}
			if err != nil {
				return fmt.Errorf("parsing as %s: %w", id, err)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "format identifier to parse as instead of resolving it")
	cmd.Flags().BoolVar(&async, "async", false, "use the async parser slot")
	return cmd
}

type formatInfo struct {
	ID         string `json:"id"`
	Extends    string `json:"extends,omitempty"`
	TypeParser bool   `json:"typeParser"`
	Parse      bool   `json:"parse"`
	ParseAsync bool   `json:"parseAsync"`
}

type pluginInfo struct {
	Ref     string   `json:"ref"`
	Formats []string `json:"formats"`
	Output  bool     `json:"output"`
	Config  bool     `json:"config"`
	Dict    bool     `json:"dict"`
}

type listing struct {
	Plugins []pluginInfo `json:"plugins"`
	Formats []formatInfo `json:"formats"`
}

func describe(reg *citeplug.Registry) listing {
	l := listing{Plugins: []pluginInfo{}, Formats: []formatInfo{}}
	for _, ref := range reg.List() {
		formats := reg.Formats(ref)
		if formats == nil {
			formats = []string{}
		}
		l.Plugins = append(l.Plugins, pluginInfo{
			Ref:     ref,
			Formats: formats,
			Output:  reg.Output().Has(ref),
			Config:  reg.Config().Has(ref),
			Dict:    reg.Dict().Has(ref),
		})
	}
	in := reg.Input()
	for _, id := range in.List() {
		parent, _ := in.Parent(id)
		l.Formats = append(l.Formats, formatInfo{
			ID:         id,
			Extends:    parent,
			TypeParser: in.HasTypeParser(id),
			Parse:      in.HasDataParser(id, false),
			ParseAsync: in.HasDataParser(id, true),
		})
	}
	return l
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered plugins and formats as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), describe(reg))
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate manifest files",
		Long: `Check decodes every file strictly (unknown keys are errors), builds the
plugins with the built-in parsers and formatters and reports every issue.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				iss, err := checkFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: %v\n", path, err)
					continue
				}
				if len(iss) > 0 {
					failed++
					for _, it := range iss {
						fmt.Fprintf(out, "%s: %s: %s\n", path, it.Path, it.Message)
					}
					continue
				}
				fmt.Fprintf(out, "%s: ok\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d manifest files failed", failed, len(args))
			}
			return nil
		},
	}
}

// checkFile returns the issues found in path. err is set for failures that
// are not Issues, such as a missing file.
func checkFile(path string) (citeplug.Issues, error) {
	ms, err := manifest.LoadFile(path, manifest.Options{Strict: true})
	if err != nil {
		if iss, ok := citeplug.AsIssues(err); ok {
			return iss, nil
		}
		return nil, err
	}
	var all citeplug.Issues
	for i := range ms {
		if _, err := ms[i].Plugin(nil, nil); err != nil {
			iss, ok := citeplug.AsIssues(err)
			if !ok {
				return nil, err
			}
			if len(ms) > 1 {
				iss = iss.Prefixed(citeplug.Root().Index(i))
			}
			all = citeplug.AppendIssues(all, iss...)
		}
	}
	return all, nil
}
