package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/aspect-linker/ast"
)

// watcher relinks a manifest whenever a file next to it changes. Rapid
// saves are collapsed into one link.
type watcher struct {
	a        *app
	path     string
	out      io.Writer
	debounce time.Duration

	// changed is when the last relevant event arrived; zero when settled
	changed time.Time
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch MANIFEST",
		Short: "Relink and print the program whenever the manifest directory changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := &watcher{a: a, path: args[0], out: cmd.OutOrStdout(), debounce: 300 * time.Millisecond}
			return w.run(cmd.Context(), nil)
		},
	}
}

// run links once, then on every settled change, until ctx is done. ready,
// when non-nil, is closed once the directory is watched.
func (w *watcher) run(ctx context.Context, ready chan<- struct{}) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	// Editors replace files on save, so the directory is watched.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.relink(ctx)
	if ready != nil {
		close(ready)
	}

	ticker := time.NewTicker(w.debounce / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.a.log.Debug("change", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
				w.changed = time.Now()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.a.log.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			if !w.changed.IsZero() && time.Since(w.changed) >= w.debounce {
				w.changed = time.Time{}
				w.relink(ctx)
			}
		}
	}
}

// relink prints the linked program, or the error that stopped the link.
// Errors do not end the watch.
func (w *watcher) relink(ctx context.Context) {
	res, err := w.a.link(ctx, w.path, false)
	if err != nil {
		fmt.Fprintf(w.out, "// link failed: %v\n", err)
		return
	}
	w.a.diagnostics(w.out, res.Diagnostics)
	fmt.Fprint(w.out, ast.Format(res.Program))
}
