package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/citeplug"
	"github.com/reoring/citeplug/manifest"
)

// app carries the state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:   "citeplug",
		Short: "Resolve and parse citation inputs with plugin manifests",
		Long: `citeplug loads plugin manifests (YAML or JSON), registers the input
formats they declare and resolves values against them.

Manifests come from --manifest flags, the "manifests" list in citeplug.yaml
(current directory or ~/.config/citeplug/) or CITEPLUG_MANIFESTS
(whitespace separated).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./citeplug.yaml or ~/.config/citeplug/citeplug.yaml)")
	pf.StringSliceP("manifest", "m", nil, "manifest file to load (repeatable)")
	pf.BoolP("verbose", "v", false, "log registry activity to stderr")
	pf.Bool("json", false, "treat input values as JSON instead of plain strings")
	pf.Duration("cache-ttl", 0, "memoize type resolution of string inputs for this long")

	_ = a.v.BindPFlag("manifests", pf.Lookup("manifest"))
	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = a.v.BindPFlag("json", pf.Lookup("json"))
	_ = a.v.BindPFlag("cache_ttl", pf.Lookup("cache-ttl"))

	root.AddCommand(
		newTypeCmd(a),
		newParseCmd(a),
		newListCmd(a),
		newCheckCmd(a),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("CITEPLUG")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	a.v.SetDefault("cache_ttl", time.Duration(0))
	a.v.SetDefault("verbose", false)

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		// Config lookup order:
		// 1. ./citeplug.yaml
		// 2. ~/.config/citeplug/citeplug.yaml
		a.v.SetConfigName("citeplug")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "citeplug"))
		}
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	level := slog.LevelWarn
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.logger.Debug("config loaded", "file", a.v.ConfigFileUsed())
	return nil
}

// manifestPaths returns the manifest files to load. Relative entries from
// the config file are resolved against the file's directory.
func (a *app) manifestPaths(cmd *cobra.Command) []string {
	paths := a.v.GetStringSlice("manifests")
	if cmd.Flags().Changed("manifest") || os.Getenv("CITEPLUG_MANIFESTS") != "" || !a.v.InConfig("manifests") {
		return paths
	}
	dir := filepath.Dir(a.v.ConfigFileUsed())
	out := make([]string, len(paths))
	for i, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		out[i] = p
	}
	return out
}

// registry builds a registry from the configured manifests.
func (a *app) registry(cmd *cobra.Command) (*citeplug.Registry, error) {
	reg, err := citeplug.New(
		citeplug.WithLogger(a.logger),
		citeplug.WithTypeCache(a.v.GetDuration("cache_ttl")),
	)
	if err != nil {
		return nil, err
	}
	var all []manifest.Manifest
	for _, path := range a.manifestPaths(cmd) {
		ms, err := manifest.LoadFile(path, manifest.Options{})
		if err != nil {
			return nil, err
		}
		a.logger.Debug("manifest loaded", "file", path, "manifests", len(ms))
		all = append(all, ms...)
	}
	if err := manifest.Register(reg, all...); err != nil {
		return nil, fmt.Errorf("registering manifests: %w", err)
	}
	return reg, nil
}
