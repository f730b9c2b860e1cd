package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"qoiconv/config"
	"qoiconv/parallel"
	"qoiconv/qoi"
)

type CLICmd struct {
	Scan       string `help:"Source folder to scan" default:"."`
	Dest       string `help:"Destination folder for converted pictures. Relative to scan dir if not absolute." default:"converted"`
	To         string `help:"Output format" enum:"qoi,png,bmp,tiff" default:"qoi"`
	Channels   uint8  `help:"QOI channel count (3 or 4). 0 picks 3 for opaque images and 4 otherwise." default:"0"`
	Colorspace string `help:"QOI colorspace tag (srgb, linear). Defaults to the config file value."`
	Force      bool   `help:"Overwrite existing destination files" default:"false"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Channels != 0 && c.Channels != 3 && c.Channels != 4 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}

	return nil
}

// options resolves the QOI encoder options, the flag winning over the
// config file.
func (c *CLICmd) options(cfg *config.Config) (*qoi.Options, error) {
	if c.Colorspace != "" {
		cfg = &config.Config{Colorspace: c.Colorspace}
	}
	cs, err := cfg.ColorspaceTag()
	if err != nil {
		return nil, err
	}
	return &qoi.Options{Channels: c.Channels, Colorspace: cs}, nil
}

func (c *CLICmd) Run(submit parallel.SubmitFunc, wait parallel.WaitFunc, cfg *config.Config) error {
	opts, err := c.options(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		submit(func(fileName string) parallel.Job {
			return func() error {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath)

				dest, err := File(logger, filePath, c.Dest, c.To, opts, c.Force)
				if err != nil {
					logger.Error("could not convert image", "dir", c.Dest, "error", err)
					return err
				}
				if dest != "" {
					logger.Info("converted", "to", dest)
				}
				return nil
			}
		}(file.Name()))
	}

	res := wait(true)
	slog.Info("stats", "processed", res.Processed, "errors", res.Failed, "total", res.Total())

	if res.Failed > 0 {
		return fmt.Errorf("error processing %d files", res.Failed)
	}
	return nil
}
