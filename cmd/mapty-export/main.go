package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/mapty/internal/config"
	"github.com/meltforce/mapty/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	out := flag.String("out", "", "write the export to this file instead of stdout")
	importPath := flag.String("import", "", "replace stored workouts with the contents of this export file")
	reset := flag.Bool("reset", false, "delete all stored workouts")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *reset && *importPath != "" {
		fmt.Fprintf(os.Stderr, "Usage: mapty-export -config config.yaml [-out file | -import file | -reset]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

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

	store := storage.NewStore(kv, cfg.Storage.Key)

	switch {
	case *reset:
		if err := store.Clear(ctx); err != nil {
			log.Error("reset failed", "error", err)
			os.Exit(1)
		}
		log.Info("workouts deleted", "key", cfg.Storage.Key)

	case *importPath != "":
		blob, err := os.ReadFile(*importPath)
		if err != nil {
			log.Error("reading import file", "error", err)
			os.Exit(1)
		}
		if err := store.Deserialize(blob); err != nil {
			log.Error("import file rejected", "path", *importPath, "error", err)
			os.Exit(1)
		}
		if err := store.Persist(ctx); err != nil {
			log.Error("saving imported workouts", "error", err)
			os.Exit(1)
		}
		log.Info("workouts imported", "count", store.Len())

	default:
		if err := store.Restore(ctx); err != nil {
			var corrupt *storage.CorruptStateError
			if errors.As(err, &corrupt) {
				log.Error("persisted workouts are corrupt", "error", err)
			} else {
				log.Error("reading workouts", "error", err)
			}
			os.Exit(1)
		}
		blob, err := store.Serialize()
		if err != nil {
			log.Error("serializing workouts", "error", err)
			os.Exit(1)
		}
		blob = append(blob, '\n')
		if *out == "" {
			os.Stdout.Write(blob)
		} else if err := os.WriteFile(*out, blob, 0o644); err != nil {
			log.Error("writing export", "path", *out, "error", err)
			os.Exit(1)
		}
		log.Info("workouts exported", "count", store.Len())
	}
}
