package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/zerodha/logf"

	"github.com/notepack/notepack/pkg/archive"
)

// initLogger initializes logger instance.
func initLogger(ko *koanf.Koanf) logf.Logger {
	opts := logf.Opts{EnableCaller: true}
	if ko.String("app.log") == "debug" {
		opts.Level = logf.DebugLevel
		opts.EnableColor = true
	}
	return logf.New(opts)
}

// initConfig loads config to `ko` object.
func initConfig() (*koanf.Koanf, error) {
	var (
		ko = koanf.New(".")
		f  = flag.NewFlagSet("server", flag.ContinueOnError)
	)

	// Configure Flags.
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	// Register `--config` flag.
	cfgPath := f.String("config", "config.sample.toml", "Path to a config file to load.")

	// Parse and Load Flags.
	err := f.Parse(os.Args[1:])
	if err != nil {
		return nil, err
	}

	err = ko.Load(file.Provider(*cfgPath), toml.Parser())
	if err != nil {
		return nil, err
	}
	err = ko.Load(env.Provider("NOTEPACK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "NOTEPACK_")), "__", ".", -1)
	}), nil)
	if err != nil {
		return nil, err
	}
	return ko, nil
}

// initArchive opens the archive with options mapped from the config.
func initArchive(ko *koanf.Koanf) (*archive.Archive, error) {
	dir := ko.String("archive.dir")
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating archive dir: %w", err)
	}

	cfg := []archive.Config{archive.WithDir(dir)}

	if ko.String("app.log") == "debug" {
		cfg = append(cfg, archive.WithDebug())
	}
	if ko.Bool("archive.read_only") {
		cfg = append(cfg, archive.WithReadOnly())
	}
	if ko.Bool("archive.always_fsync") {
		cfg = append(cfg, archive.WithAlwaysSync())
	} else if d := ko.Duration("archive.sync_interval"); d > 0 {
		cfg = append(cfg, archive.WithBackgroundSync(d))
	}
	if d := ko.Duration("archive.compact_interval"); d > 0 {
		cfg = append(cfg, archive.WithCompactInterval(d))
	}
	if d := ko.Duration("archive.check_file_size_interval"); d > 0 {
		cfg = append(cfg, archive.WithCheckFileSizeInterval(d))
	}
	if size := ko.Int64("archive.max_active_file_size"); size > 0 {
		cfg = append(cfg, archive.WithMaxActiveFileSize(size))
	}

	return archive.Init(cfg...)
}
