package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/odvcencio/venvup/pkg/filewatch"
)

// runWatchCommand bootstraps the project and then keeps the environment in
// sync with the manifest until interrupted.
func runWatchCommand(args []string) error {
	cfg, root, err := loadConfigAndRoot()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := newWriter()
	if err := bootstrapProject(ctx, writer, cfg, root, bootstrapParams{}); err != nil {
		return err
	}

	watcher, err := filewatch.NewManifestWatcher(cfg.ManifestPath(root), cfg.Watch.Debounce)
	if err != nil {
		return err
	}

	changes := make(chan filewatch.Change, 1)
	watcher.Subscribe(func(c filewatch.Change) {
		select {
		case changes <- c:
		default:
			// A rerun is already queued; this change rides along with it.
		}
	})

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	writer.Newline()
	writer.Info("Watching %s for changes. Press Ctrl-C to stop.", cfg.Manifest.Path)

	for {
		select {
		case <-ctx.Done():
			writer.Newline()
			writer.Dim("Stopping watch")
			return nil
		case <-changes:
			writer.Newline()
			writer.Info("%s changed, syncing environment", cfg.Manifest.Path)
			if err := bootstrapProject(ctx, writer, cfg, root, bootstrapParams{}); err != nil {
				// Keep watching: a broken edit is usually followed by a fix.
				writer.Error("sync failed: %v", err)
			}
		}
	}
}
