package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/treescan/internal/config"
	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/display"
	"github.com/standardbeagle/treescan/internal/engine"
	"github.com/standardbeagle/treescan/internal/mcp"
	"github.com/standardbeagle/treescan/internal/query"
	"github.com/standardbeagle/treescan/internal/types"
	"github.com/standardbeagle/treescan/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "treescan",
		Usage:                  "Source structure extraction for AI assistants",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Explicit config file path (skips the global/project merge)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Sandbox root directory (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Write debug logging to stderr",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug logging to a timestamped file under the temp directory",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.SetEnabled(true)
				debug.SetDebugOutput(os.Stderr)
			}
			if c.Bool("debug-log") {
				debug.SetEnabled(true)
				logPath, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "debug log: %s\n", logPath)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Aliases:   []string{"a"},
				Usage:     "Extract the typed structure of source files",
				ArgsUsage: "<file> [file...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "language",
						Aliases: []string{"l"},
						Usage:   "Language override (default: inferred from extension)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, toon",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "include-source",
						Usage: "Echo file source in results",
					},
					&cli.StringFlag{
						Name:  "encoding",
						Usage: "Force a specific decoder instead of the fallback list",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write output to a file instead of stdout",
					},
				},
				Action: analyzeCommand,
			},
			{
				Name:      "query",
				Aliases:   []string{"q"},
				Usage:     "Run a tree-sitter structural query against a file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "key",
						Aliases: []string{"k"},
						Usage:   "Built-in query key (functions, methods, classes, variables, imports, comments, all)",
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Raw tree-sitter query string (mutually exclusive with --key)",
					},
					&cli.StringFlag{
						Name:    "language",
						Aliases: []string{"l"},
						Usage:   "Language override",
					},
					&cli.StringFlag{
						Name:  "filter-field",
						Usage: "Post-filter field: capture, content, node_type",
					},
					&cli.StringFlag{
						Name:  "filter-operator",
						Usage: "Post-filter operator: eq, contains, regex",
					},
					&cli.StringFlag{
						Name:  "filter-pattern",
						Usage: "Post-filter pattern",
					},
					&cli.BoolFlag{
						Name:  "summary",
						Usage: "Per-capture counts with representatives instead of full matches",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, toon",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:  "output-file",
						Usage: "Persist the full response to a file inside the sandbox",
					},
					&cli.StringFlag{
						Name:  "output-format",
						Usage: "Persisted document format: json, toon",
					},
					&cli.BoolFlag{
						Name:  "suppress-output",
						Usage: "Omit match bodies from stdout (useful with --output-file)",
					},
				},
				Action: queryCommand,
			},
			{
				Name:      "read",
				Usage:     "Read a line/column section of a file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "First line, 1-indexed",
						Value:   1,
					},
					&cli.IntFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "Last line inclusive (0 = end of file)",
					},
					&cli.IntFlag{
						Name:  "start-col",
						Usage: "First column on the first line, 1-indexed",
					},
					&cli.IntFlag{
						Name:  "end-col",
						Usage: "Last column on the last line, inclusive",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: raw, json",
						Value:   "raw",
					},
				},
				Action: readCommand,
			},
			{
				Name:  "batch",
				Usage: "Read sections of many files from a JSON manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Manifest path, or - for stdin",
						Value:   "-",
					},
					&cli.BoolFlag{
						Name:  "fail-fast",
						Usage: "Abort on the first failing sub-request",
					},
					&cli.BoolFlag{
						Name:  "allow-truncate",
						Usage: "Clamp oversized batches instead of rejecting them",
					},
					&cli.IntFlag{
						Name:  "max-concurrency",
						Usage: "Concurrent sub-request cap (overrides config)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, toon",
						Value:   "text",
					},
				},
				Action: batchCommand,
			},
			{
				Name:      "gitignore-check",
				Usage:     "Detect .gitignore patterns that would hide source files",
				ArgsUsage: "[root...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "project-root",
						Usage: "Project root override (default: sandbox root)",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: gitignoreCheckCommand,
			},
			{
				Name:  "languages",
				Usage: "List supported languages, extensions, and query keys",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, toon",
						Value:   "text",
					},
				},
				Action: languagesCommand,
			},
			{
				Name:  "config",
				Usage: "Configuration management",
				Subcommands: []*cli.Command{
					{
						Name:    "init",
						Aliases: []string{"i"},
						Usage:   "Write a commented .treescan.kdl starter file",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output path",
								Value:   ".treescan.kdl",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:    "show",
						Aliases: []string{"s"},
						Usage:   "Show the effective configuration",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "format",
								Aliases: []string{"f"},
								Usage:   "Output format: text, json, toon",
								Value:   "text",
							},
						},
						Action: configShowCommand,
					},
					{
						Name:    "validate",
						Aliases: []string{"v"},
						Usage:   "Validate the configuration and report warnings",
						Action:  configValidateCommand,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP server on stdio",
				Action: mcpCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration with CLI overrides applied on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")

	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path, root)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}

	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %q: %w", root, err)
		}
		cfg.Project.Root = abs
	}

	result := config.Validate(cfg)
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "config warning: %s\n", warning)
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return cfg, nil
}

func newEngine(c *cli.Context) (*engine.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg)
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func emit(c *cli.Context, format string, v interface{}, text func() string) error {
	var out string
	if format == "" || format == "text" {
		out = text()
	} else {
		rendered, err := display.Render(format, v)
		if err != nil {
			return err
		}
		out = rendered + "\n"
	}

	if path := c.String("output"); path != "" {
		return os.WriteFile(path, []byte(out), 0o644)
	}
	_, err := fmt.Fprint(os.Stdout, out)
	return err
}

func analyzeCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: treescan analyze <file> [file...]")
	}

	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	results := make([]*types.AnalysisResult, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		result, err := eng.Analyze(ctx, types.AnalysisRequest{
			FilePath: path,
			Language: types.Language(c.String("language")),
			Options: types.AnalysisOptions{
				IncludeSource: c.Bool("include-source"),
				Encoding:      c.String("encoding"),
			},
		})
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	var payload interface{} = results
	if len(results) == 1 {
		payload = results[0]
	}
	err = emit(c, c.String("format"), payload, func() string {
		var out string
		for _, r := range results {
			out += display.AnalysisText(r)
		}
		return out
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("analysis failed for %s: %s", r.FilePath, r.ErrorMessage)
		}
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: treescan query <file> (--key <name> | --query <s-expression>)")
	}

	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	req := query.Request{
		FilePath:       c.Args().First(),
		Language:       c.String("language"),
		QueryKey:       c.String("key"),
		QueryString:    c.String("query"),
		OutputFile:     c.String("output-file"),
		OutputFormat:   c.String("output-format"),
		SuppressOutput: c.Bool("suppress-output"),
	}
	if c.Bool("summary") {
		req.ResultFormat = query.FormatSummary
	}
	if c.String("filter-field") != "" || c.String("filter-operator") != "" || c.String("filter-pattern") != "" {
		req.Filter = &types.FilterExpression{
			Field:    types.FilterField(c.String("filter-field")),
			Operator: types.FilterOperator(c.String("filter-operator")),
			Pattern:  c.String("filter-pattern"),
		}
	}

	resp, err := eng.Query(ctx, req)
	if err != nil {
		return err
	}
	return emit(c, c.String("format"), resp, func() string {
		return display.QueryText(resp)
	})
}

func readCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: treescan read <file> --start N [--end N]")
	}

	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	section, err := eng.ReadPartial(ctx, c.Args().First(), types.SectionRequest{
		StartLine:   c.Int("start"),
		EndLine:     c.Int("end"),
		StartColumn: c.Int("start-col"),
		EndColumn:   c.Int("end-col"),
	})
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "raw", "":
		_, err := fmt.Fprintln(os.Stdout, section.Content)
		return err
	default:
		return emit(c, c.String("format"), section, func() string { return section.Content + "\n" })
	}
}

func batchCommand(c *cli.Context) error {
	manifest, err := readManifest(c.String("input"))
	if err != nil {
		return err
	}

	var req types.BatchRequest
	if err := json.Unmarshal(manifest, &req); err != nil {
		// A bare request array is accepted as shorthand for the full shape.
		var requests []types.FileRequest
		if arrErr := json.Unmarshal(manifest, &requests); arrErr != nil {
			return fmt.Errorf("parse batch manifest: %w", err)
		}
		req.Requests = requests
	}
	if c.Bool("fail-fast") {
		req.FailFast = true
	}
	if c.Bool("allow-truncate") {
		req.AllowTruncate = true
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("max-concurrency"); n > 0 {
		cfg.Batch.MaxConcurrency = n
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := eng.ReadBatch(ctx, req)
	if err != nil {
		return err
	}
	if err := emit(c, c.String("format"), result, func() string {
		return display.BatchText(result)
	}); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%d of %d files failed", len(result.Errors), result.FilesRequested)
	}
	return nil
}

func readManifest(input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(input)
}

func gitignoreCheckCommand(c *cli.Context) error {
	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	info := eng.GitignoreInfo(c.Args().Slice(), c.String("project-root"))

	if c.Bool("json") {
		out, err := display.JSON(info)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, out)
		return nil
	}

	if info.ShouldUseNoIgnore {
		fmt.Fprintf(os.Stdout, "bypass recommended: %s\n", info.Reason)
		for _, p := range info.InterferingPatterns {
			fmt.Fprintf(os.Stdout, "  interfering pattern: %s\n", p)
		}
	} else {
		fmt.Fprintf(os.Stdout, "no interference: %s\n", info.Reason)
	}
	return nil
}

func languagesCommand(c *cli.Context) error {
	eng, err := newEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	infos := eng.Languages()
	return emit(c, c.String("format"), infos, func() string {
		return display.LanguagesText(infos)
	})
}

func mcpCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// Long-lived server: keep cached results fresh as files change.
	cfg.Watch.Enabled = true

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := signalContext()
	defer cancel()
	return server.Run(ctx)
}
