package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/repr"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"

	"github.com/setsuna-lang/setsuna"
	"github.com/setsuna-lang/setsuna/pkg/evaluator"
	"github.com/setsuna-lang/setsuna/pkg/parser"
)

// projectConfig is the optional setsuna.yaml manifest read from the
// working directory.
type projectConfig struct {
	SearchPaths []string `yaml:"search_paths"`
	NoPrelude   bool     `yaml:"no_prelude"`
	MaxDepth    int      `yaml:"max_depth"`
}

func loadProjectConfig() projectConfig {
	var cfg projectConfig
	data, err := os.ReadFile("setsuna.yaml")
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "setsuna: invalid setsuna.yaml: %v\n", err)
	}
	return cfg
}

// buildOptions merges the manifest with command-line flags. Flags win.
func buildOptions(c *cli.Context) []setsuna.Option {
	cfg := loadProjectConfig()

	var opts []setsuna.Option
	for _, dir := range cfg.SearchPaths {
		opts = append(opts, setsuna.WithSearchPath(dir))
	}
	for _, dir := range c.StringSlice("search-path") {
		opts = append(opts, setsuna.WithSearchPath(dir))
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, setsuna.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.NoPrelude || c.Bool("no-prelude") {
		opts = append(opts, setsuna.WithoutPrelude())
	}
	if c.Bool("verbose") {
		opts = append(opts, setsuna.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	return opts
}

// reportError prints an evaluation or parse error. With --trace the
// error is wrapped so the Go call stack is shown too.
func reportError(c *cli.Context, err error) {
	if c.Bool("trace") {
		tracerr.PrintSourceColor(tracerr.Wrap(err))
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}

func main() {
	globalFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "print a Go stack trace with errors",
		},
		&cli.BoolFlag{
			Name:  "no-prelude",
			Usage: "skip loading the prelude",
		},
		&cli.StringSliceFlag{
			Name:  "search-path",
			Usage: "extra directory for import resolution (repeatable)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable debug logging",
		},
	}

	app := &cli.App{
		Name:    "setsuna",
		Usage:   "the Setsuna language interpreter",
		Version: setsuna.Version(),
		Flags:   globalFlags,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a source file",
				ArgsUsage: "<file.stsn>",
				Flags:     globalFlags,
				Action: func(c *cli.Context) error {
					file := c.Args().First()
					if file == "" {
						return cli.Exit("usage: setsuna run <file.stsn>", 2)
					}
					return runFile(c, file)
				},
			},
			{
				Name:  "repl",
				Usage: "start an interactive session",
				Flags: globalFlags,
				Action: func(c *cli.Context) error {
					return runRepl(buildOptions(c))
				},
			},
			{
				Name:      "ast",
				Usage:     "parse a source file and dump its syntax tree",
				ArgsUsage: "<file.stsn>",
				Flags:     globalFlags,
				Action: func(c *cli.Context) error {
					file := c.Args().First()
					if file == "" {
						return cli.Exit("usage: setsuna ast <file.stsn>", 2)
					}
					data, err := os.ReadFile(file)
					if err != nil {
						return cli.Exit(fmt.Sprintf("setsuna: cannot read %s: %v", file, err), 1)
					}
					prog, err := parser.Parse(string(data), parser.WithFilename(file))
					if err != nil {
						reportError(c, err)
						return cli.Exit("", 1)
					}
					repr.Println(prog)
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "type-check a source file without running it",
				ArgsUsage: "<file.stsn>",
				Flags:     globalFlags,
				Action: func(c *cli.Context) error {
					file := c.Args().First()
					if file == "" {
						return cli.Exit("usage: setsuna check <file.stsn>", 2)
					}
					data, err := os.ReadFile(file)
					if err != nil {
						return cli.Exit(fmt.Sprintf("setsuna: cannot read %s: %v", file, err), 1)
					}
					interp := setsuna.NewInterpreter(append(buildOptions(c), setsuna.WithoutPrelude())...)
					if err := interp.Check(string(data), file); err != nil {
						reportError(c, err)
						return cli.Exit("", 1)
					}
					fmt.Println("ok")
					return nil
				},
			},
		},
		// Running with a file argument and no command works too.
		Action: func(c *cli.Context) error {
			file := c.Args().First()
			if file == "" {
				return runRepl(buildOptions(c))
			}
			return runFile(c, file)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// runFile evaluates a source file and prints its final value when it is
// not unit.
func runFile(c *cli.Context, file string) error {
	v, err := setsuna.RunFile(file, buildOptions(c)...)
	if err != nil {
		reportError(c, err)
		return cli.Exit("", 1)
	}
	if !isUnit(v) {
		fmt.Println(evaluator.FormatValue(v))
	}
	return nil
}

// isUnit reports whether the REPL should stay silent about a result.
func isUnit(v setsuna.Value) bool {
	_, ok := v.(evaluator.UnitValue)
	return ok
}
