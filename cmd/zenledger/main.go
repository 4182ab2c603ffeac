package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jask/zenledger/internal/config"
	"github.com/jask/zenledger/internal/database"
	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/syncer"
	"github.com/jask/zenledger/internal/zenmoney"
)

func main() {
	full := flag.Bool("full", false, "discard the cursor and rebuild the cache from scratch")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	token := cfg.ZenMoney.ResolveToken()
	if token == "" {
		log.Error("no API token", "env", cfg.ZenMoney.TokenEnv)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Error("mkdir db dir", "err", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(cfg.Database.Path, "internal/database/migrations"); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Error("open db", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	client := zenmoney.NewHTTPClient(cfg.ZenMoney.APIURL, token,
		time.Duration(cfg.ZenMoney.TimeoutSeconds)*time.Second)
	engine := syncer.New(repository.NewStore(db), client, log)

	ctx := context.Background()
	res, err := engine.Sync(ctx, syncer.Options{Full: *full})
	if err != nil {
		log.Error("sync failed", "err", err)
		os.Exit(1)
	}

	for kind, n := range res.Applied.Upserted {
		log.Info("merged", "kind", string(kind), "upserted", n, "deleted", res.Applied.Deleted[kind])
	}
	log.Info("done",
		"pages", res.Pages,
		"cursor", res.Cursor,
		"full", res.Full,
		"duration", res.Duration.Round(time.Millisecond))
}
