package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"qoiconv/bench"
	"qoiconv/config"
	"qoiconv/convert"
	"qoiconv/parallel"
	"qoiconv/watch"
)

type cli struct {
	Config   string `help:"TOML configuration file" default:"qoiconv.toml" type:"path"`
	Workers  int    `help:"Number of workers. 0 uses the config file value, or one per CPU." default:"0"`
	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info"`

	Convert convert.CLICmd `cmd:"" help:"Convert a folder of images to or from QOI"`
	Bench   bench.CLICmd   `cmd:"" help:"Compare PNG and QOI timings and sizes"`
	Watch   watch.CLICmd   `cmd:"" help:"Convert images dropped into watched folders to QOI"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("qoiconv"),
		kong.Description("Lossless QOI image conversion"),
		kong.UsageOnError(),
	)

	var level slog.Level
	kctx.FatalIfErrorf(level.UnmarshalText([]byte(c.LogLevel)))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(c.Config)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	workers := c.Workers
	if workers == 0 {
		workers = cfg.Workers
	}
	pool := parallel.Start(workers)
	slog.Debug("running", "command", kctx.Command(), "workers", workers, "config", c.Config)

	if err := kctx.Run(pool.Submit, pool.Wait, cfg); err != nil {
		slog.Error("failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
