package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/mapty/internal/app"
	"github.com/meltforce/mapty/internal/config"
	"github.com/meltforce/mapty/internal/geo"
	"github.com/meltforce/mapty/internal/mapview"
	"github.com/meltforce/mapty/internal/mcp"
	"github.com/meltforce/mapty/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	remote := flag.String("remote", "", "base URL of a running mapty server (e.g. http://mapty.tailnet.ts.net)")
	configPath := flag.String("config", "", "path to config file for local mode")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	switch {
	case *remote != "":
		ds = mcp.NewHTTPClient(*remote)
		log.Info("mcp remote mode", "server", *remote)
	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		ctx := context.Background()
		kv, err := storage.Open(ctx, cfg.Storage, log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer kv.Close()

		// No browser is attached, so the map stays disabled.
		a := app.New(storage.NewStore(kv, cfg.Storage.Key), mapview.New(mapview.Tiles{}), geo.Denied(), app.Options{Zoom: cfg.Map.Zoom}, log)
		if err := a.Start(ctx); err != nil {
			log.Error("failed to start", "error", err)
			os.Exit(1)
		}
		ds = mcp.NewLocal(a)
		log.Info("mcp local mode", "driver", cfg.Storage.Driver)
	default:
		fmt.Fprintf(os.Stderr, "Usage: mapty-mcp -remote http://host | -config config.yaml\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := mcpserver.ServeStdio(mcp.New(ds, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
