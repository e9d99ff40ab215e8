package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/config"
	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <archive>",
		Short: "Re-read an archive whenever it changes",
		Long: `Watch an archive and print its tables and diagnostics every time the
file is written, replaced or removed. Stop with Ctrl-C.`,
		Example: `  # Keep an eye on an archive edited by another tool
  ddf watch project.ddf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			debounce := opts.Debounce
			if !cmd.Flags().Changed("debounce") {
				debounce = cmdCtx.Cfg.WatchDebounce
			}
			path := args[0]
			return watchArchive(cmd.Context(), cmdCtx.Manager, path, debounce, func(a *ddf.Archive, diags ddf.Diagnostics, err error) {
				reportSnapshot(cmdCtx, path, a, diags, err)
			})
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", config.DefaultWatchDebounce, "Wait this long after the last change before re-reading (default from watch_debounce)")

	return cmd
}

// watchArchive reads path once, then again after every burst of changes,
// until ctx is done. The parent directory is watched so that archives
// replaced by rename are followed.
func watchArchive(ctx context.Context, m *ddf.Manager, path string, debounce time.Duration, onChange func(*ddf.Archive, ddf.Diagnostics, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	reload := func() {
		a, diags, err := m.Read(ctx, path)
		onChange(a, diags, err)
	}
	reload()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		case <-timer.C:
			reload()
		}
	}
}

func reportSnapshot(c *CommandContext, path string, a *ddf.Archive, diags ddf.Diagnostics, err error) {
	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		info := output.ArchiveInfo{
			Path:        path,
			Tables:      []output.TableInfo{},
			Unknown:     diags.Unknown(),
			Diagnostics: output.NewDiagnosticInfos(diags),
		}
		if info.Unknown == nil {
			info.Unknown = []string{}
		}
		for _, s := range a.Present() {
			t, _ := a.Get(s)
			info.Tables = append(info.Tables, output.NewTableInfo(s.String(), t))
		}
		_ = r.JSON(info)
		return
	}

	r.Header(2, fmt.Sprintf("%s %s", time.Now().Format(time.TimeOnly), path))
	c.reportDiagnostics(diags)
	if err != nil {
		r.Error(err.Error())
		return
	}
	for _, s := range a.Present() {
		t, _ := a.Get(s)
		r.StatusLine(s.String(), "success", fmt.Sprintf("%d rows, %d columns", t.NumRows(), t.NumColumns()))
	}
	if a.Len() == 0 {
		r.Muted("no tables")
	}
}
