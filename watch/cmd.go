// Package watch converts images to QOI as they appear in watched folders.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"qoiconv/config"
	"qoiconv/convert"
	"qoiconv/parallel"
	"qoiconv/qoi"
)

type CLICmd struct {
	Dirs     []string `arg:"" optional:"" type:"existingdir" help:"Folders to watch. Defaults to the [watch] dirs of the config file."`
	Dest     string   `help:"Destination folder for QOI files. Defaults to the config file value."`
	Channels uint8    `help:"QOI channel count (3 or 4). 0 picks 3 for opaque images and 4 otherwise." default:"0"`
}

func (c *CLICmd) Validate() error {
	if c.Channels != 0 && c.Channels != 3 && c.Channels != 4 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	return nil
}

func (c *CLICmd) Run(submit parallel.SubmitFunc, wait parallel.WaitFunc, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.watch(ctx, submit, wait, cfg)
}

type watcher struct {
	dest   string
	opts   *qoi.Options
	submit parallel.SubmitFunc
}

func (w *watcher) convert(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if filepath.Dir(path) == w.dest {
		return
	}

	w.submit(func() error {
		logger := slog.Default().With("file", path)
		dest, err := convert.File(logger, path, w.dest, "qoi", w.opts, true)
		if err != nil {
			logger.Error("could not convert image", "error", err)
			return err
		}
		if dest != "" {
			logger.Info("converted", "to", dest)
		}
		return nil
	})
}

// initialScan converts files that have no QOI counterpart yet.
func (w *watcher) initialScan(dir string) {
	files, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("unable to read folder", "dir", dir, "error", err)
		return
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		path := filepath.Join(dir, file.Name())
		if _, err := os.Stat(convert.DestName(path, w.dest, "qoi")); errors.Is(err, os.ErrNotExist) {
			w.convert(path)
		}
	}
}

func (c *CLICmd) watch(ctx context.Context, submit parallel.SubmitFunc, wait parallel.WaitFunc, cfg *config.Config) error {
	dirs := c.Dirs
	if len(dirs) == 0 {
		dirs = cfg.Watch.Dirs
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no folders to watch")
	}

	dest := c.Dest
	if dest == "" {
		dest = cfg.Watch.Dest
	}
	dest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("invalid destination path %q: %w", c.Dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", dest, err)
	}

	cs, err := cfg.ColorspaceTag()
	if err != nil {
		return err
	}
	w := &watcher{
		dest:   dest,
		opts:   &qoi.Options{Channels: c.Channels, Colorspace: cs},
		submit: submit,
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range dirs {
		dir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("invalid watch path %q: %w", dir, err)
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		slog.Info("watching", "dir", dir, "dest", dest)
		w.initialScan(dir)
	}

	db := newDebouncer(cfg.Watch.Debounce(), w.convert)
	shutdown := func() {
		db.stop()
		res := wait(true)
		slog.Info("stats", "processed", res.Processed, "errors", res.Failed, "total", res.Total())
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			shutdown()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				shutdown()
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				db.trigger(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				shutdown()
				return nil
			}
			slog.Error("watch error", "error", err)
		}
	}
}
