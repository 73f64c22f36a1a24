package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cpcf/scaffold/config"
	"github.com/cpcf/scaffold/debug"
	"github.com/cpcf/scaffold/engine"
	"github.com/cpcf/scaffold/processors"
	"github.com/cpcf/scaffold/variant"
	"github.com/cpcf/scaffold/watch"
	"github.com/cpcf/scaffold/write"
)

type options struct {
	configPath string
	backend    string
	name       string
	authors    string
	local      bool
	out        string
	templates  string
	workers    int
	dryRun     bool
	watch      bool
	schema     bool
	noInput    bool
	verbose    bool
	force      bool

	set map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, surveyPrompter{}))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	flags := flag.NewFlagSet("scaffold", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configPath, "config", "", "configuration file (.yaml, .yml or .toml)")
	flags.StringVar(&opts.backend, "backend", "", "server backend: "+strings.Join(variant.BackendNames(), ", "))
	flags.StringVar(&opts.name, "name", "", "crate name of the generated project")
	flags.StringVar(&opts.authors, "authors", "", "authors written to Cargo.toml")
	flags.BoolVar(&opts.local, "local", false, "depend on the hashira crates of a local checkout")
	flags.StringVar(&opts.out, "out", "", "output directory (defaults to the crate name)")
	flags.StringVar(&opts.templates, "templates", "", "directory overriding the built-in templates")
	flags.IntVar(&opts.workers, "workers", 0, "templates rendered in parallel (0 uses all CPUs)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "render without writing and list the files")
	flags.BoolVar(&opts.watch, "watch", false, "regenerate when files below -templates change")
	flags.BoolVar(&opts.schema, "schema", false, "print the configuration JSON Schema and exit")
	flags.BoolVar(&opts.noInput, "no-input", false, "never prompt for missing values")
	flags.BoolVar(&opts.verbose, "verbose", false, "log debug output")
	flags.BoolVar(&opts.force, "force", false, "overwrite existing files, keeping a .bak copy")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	flags.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	if opts.watch && opts.templates == "" {
		return nil, errors.New("-watch requires -templates")
	}
	if opts.watch && opts.dryRun {
		return nil, errors.New("-watch and -dry-run cannot be combined")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, p prompter) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if opts.schema {
		schema, err := config.Schema()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, string(schema))
		return 0
	}

	cfg, err := resolveConfig(opts, p)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := generate(ctx, cfg, opts, logger, stdout); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// resolveConfig merges the config file, explicitly set flags and prompted
// answers, in increasing precedence of the first two. The result is
// validated once everything is merged.
func resolveConfig(opts *options, p prompter) (config.Scaffold, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		if err := config.Decode(opts.configPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if opts.set["backend"] {
		cfg.Backend = opts.backend
	}
	if opts.set["name"] {
		cfg.CrateName = opts.name
	}
	if opts.set["authors"] {
		cfg.Authors = opts.authors
	}
	if opts.set["local"] {
		cfg.UseLocal = opts.local
	}
	if opts.set["out"] {
		cfg.Output = opts.out
	}
	if opts.set["templates"] {
		cfg.Templates = opts.templates
	}
	if opts.set["workers"] {
		cfg.Workers = opts.workers
	}

	if !opts.noInput {
		if err := promptMissing(&cfg, opts, p); err != nil {
			return cfg, err
		}
	}

	if cfg.Output == "" || (cfg.Output == "." && opts.configPath == "" && !opts.set["out"]) {
		cfg.Output = cfg.CrateName
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func promptMissing(cfg *config.Scaffold, opts *options, p prompter) error {
	var err error
	if cfg.Backend == "" {
		if cfg.Backend, err = p.Select("Backend:", variant.BackendNames()); err != nil {
			return err
		}
	}
	if cfg.CrateName == "" {
		validate := func(s string) error {
			probe := config.Scaffold{Backend: string(variant.Axum), CrateName: s}
			return probe.Validate()
		}
		if cfg.CrateName, err = p.Input("Crate name:", "", validate); err != nil {
			return err
		}
	}
	if cfg.Authors == "" {
		if cfg.Authors, err = p.Input("Authors:", "", nil); err != nil {
			return err
		}
	}
	if opts.configPath == "" && !opts.set["local"] {
		if cfg.UseLocal, err = p.Confirm("Use local hashira packages?", false); err != nil {
			return err
		}
	}
	return nil
}

func generate(ctx context.Context, cfg config.Scaffold, opts *options, logger *slog.Logger, stdout io.Writer) error {
	mode, err := engine.ParseFailureMode(cfg.FailureMode)
	if err != nil {
		return err
	}

	writeOpts := write.DefaultOptions()
	if opts.force {
		writeOpts.Overwrite = true
		writeOpts.Backup = true
	}

	var writer write.Writer = write.NewFileWriter()
	var memory *write.MemoryWriter
	switch {
	case opts.dryRun:
		memory = write.NewMemoryWriter()
		writer = memory
	case opts.watch:
		writer = write.NewSkipUnchangedWriter(writer)
	}

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithFailureMode(mode),
		engine.WithWorkers(cfg.Workers),
		engine.WithWriter(writer),
		engine.WithWriteOptions(writeOpts),
		engine.WithManifest(cfg.Manifest && !opts.dryRun),
	)
	if err := eng.AddPostProcessorFor("*.toml", processors.NewTOMLCheck()); err != nil {
		return err
	}
	if err := eng.AddPostProcessorFor("*.y*ml", processors.NewYAMLCheck()); err != nil {
		return err
	}
	eng.AddPostProcessor(processors.NewTrailingNewline())

	src, err := templateSource(cfg.Templates, cfg.Output)
	if err != nil {
		return err
	}

	explainer := debug.Explainer{
		FS:        src.TmplFS,
		Variables: variant.BuildContext(cfg.Inputs()).Keys(),
	}
	if err := eng.Scaffold(ctx, src, cfg.Backend, cfg.Inputs()); err != nil {
		return errors.New(explainer.Explain(err))
	}

	if memory != nil {
		for _, p := range memory.Paths() {
			fmt.Fprintln(stdout, p)
		}
		return nil
	}

	if !opts.watch {
		return nil
	}

	absOut, _ := filepath.Abs(cfg.Output)
	w, err := watch.New(cfg.Templates, watch.Options{
		Logger: logger,
		Ignore: func(path string) bool {
			abs, err := filepath.Abs(path)
			return err == nil && (abs == absOut || strings.HasPrefix(abs, absOut+string(filepath.Separator)))
		},
	})
	if err != nil {
		return err
	}

	logger.Info("watching templates", "dir", cfg.Templates)
	return w.Run(ctx, func() error {
		eng.ClearCache()
		if err := eng.Scaffold(ctx, src, cfg.Backend, cfg.Inputs()); err != nil {
			return errors.New(explainer.Explain(err))
		}
		return nil
	})
}

func templateSource(dir, output string) (engine.Context, error) {
	if dir == "" {
		return engine.NewContext(variant.FS(), "builtin", output), nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return engine.Context{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return engine.Context{}, fmt.Errorf("templates: %w", err)
	}
	if !info.IsDir() {
		return engine.Context{}, fmt.Errorf("templates: %s is not a directory", dir)
	}

	return engine.NewContext(os.DirFS(abs), "dir:"+abs, output), nil
}
