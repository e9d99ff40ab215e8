package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
)

// ExtractOptions holds options for the extract command.
type ExtractOptions struct {
	Dest string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <archive|dir>...",
		Short: "Extract archives into folders of table files",
		Long: `Extract every recognized table of each archive into <dest>/<archive name>/
as one file per table. A directory argument stands for the .ddf archives it
contains.

Archives are processed concurrently, up to the configured number of workers.
A failing archive does not stop the others.`,
		Example: `  # Extract one archive next to it
  ddf extract project.ddf

  # Extract all archives of a folder into out/
  ddf extract samples/ --dest out --workers 8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runExtract(cmd.Context(), cmdCtx, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dest, "dest", "d", ".", "Directory to extract into")

	return cmd
}

// expandArchives replaces directory arguments by the archives they hold.
func expandArchives(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".ddf") {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	return paths, nil
}

func archiveStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runExtract(ctx context.Context, c *CommandContext, args []string, opts *ExtractOptions) error {
	paths, err := expandArchives(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no archives found in %s", strings.Join(args, ", "))
	}

	results := make([]output.ExtractResult, len(paths))
	errs := make([]error, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Cfg.Workers)
	for i, path := range paths {
		g.Go(func() error {
			dest := filepath.Join(opts.Dest, archiveStem(path))
			diags, err := c.Manager.Extract(ctx, path, dest)

			res := output.ExtractResult{
				Source:      path,
				Destination: dest,
				Diagnostics: output.NewDiagnosticInfos(diags),
			}
			if err != nil {
				res.Error = err.Error()
			} else {
				entries, _ := os.ReadDir(dest)
				res.Tables = len(entries)
			}

			mu.Lock()
			results[i] = res
			errs[i] = err
			mu.Unlock()

			// Context cancellation stops the run; per-archive failures do not.
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return reportRuns(c, "Extracted", results, errs)
}

// reportRuns prints one status line per archive and joins the failures.
func reportRuns(c *CommandContext, verb string, results []output.ExtractResult, errs []error) error {
	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			for _, d := range res.Diagnostics {
				r.Warning(fmt.Sprintf("%s: %s", res.Source, d.Message))
			}
			if res.Error != "" {
				r.StatusLine(res.Source, "failed", res.Error)
				continue
			}
			r.StatusLine(res.Source, "success", fmt.Sprintf("%d tables -> %s", res.Tables, res.Destination))
		}
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed: %w", failed, len(errs), errors.Join(errs...))
	}
	if r.EffectiveMode() != output.ModeJSON {
		r.Success(fmt.Sprintf("%s %d archives", verb, len(results)))
	}
	return nil
}
