package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/treescan/internal/config"
	"github.com/standardbeagle/treescan/internal/display"
)

func configInitCommand(c *cli.Context) error {
	path := c.String("output")

	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(config.SampleKDL()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	format := c.String("format")
	if format == "" || format == "text" {
		fmt.Fprint(os.Stdout, configText(cfg))
		return nil
	}
	out, err := display.Render(format, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}

func configValidateCommand(c *cli.Context) error {
	// loadConfig already validates; reaching here means the config is usable.
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "configuration ok (root: %s)\n", cfg.Project.Root)
	return nil
}

func configText(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "project.root                %s\n", cfg.Project.Root)
	if cfg.Project.Name != "" {
		fmt.Fprintf(&b, "project.name                %s\n", cfg.Project.Name)
	}
	fmt.Fprintf(&b, "analysis.max_file_size      %d\n", cfg.Analysis.MaxFileSize)
	fmt.Fprintf(&b, "analysis.encoding_fallback  %s\n", strings.Join(cfg.Analysis.EncodingFallback, ", "))
	fmt.Fprintf(&b, "analysis.include_source     %t\n", cfg.Analysis.IncludeSource)
	fmt.Fprintf(&b, "cache.capacity              %d\n", cfg.Cache.Capacity)
	fmt.Fprintf(&b, "batch.max_files             %d\n", cfg.Batch.MaxFiles)
	fmt.Fprintf(&b, "batch.max_sections_per_file %d\n", cfg.Batch.MaxSectionsPerFile)
	fmt.Fprintf(&b, "batch.max_concurrency       %d\n", cfg.Batch.MaxConcurrency)
	fmt.Fprintf(&b, "gitignore.ancestor_depth    %d\n", cfg.Gitignore.AncestorDepth)
	fmt.Fprintf(&b, "gitignore.scan_depth        %d\n", cfg.Gitignore.ScanDepth)
	if len(cfg.Gitignore.ExtraExtensions) > 0 {
		fmt.Fprintf(&b, "gitignore.extra_extensions  %s\n", strings.Join(cfg.Gitignore.ExtraExtensions, ", "))
	}
	fmt.Fprintf(&b, "watch.enabled               %t\n", cfg.Watch.Enabled)
	fmt.Fprintf(&b, "watch.debounce_ms           %d\n", cfg.Watch.DebounceMs)
	return b.String()
}
