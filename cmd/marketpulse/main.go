package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"marketpulse/internal/api"
	"marketpulse/internal/config"
	"marketpulse/internal/janitor"
	"marketpulse/internal/source"
	"marketpulse/internal/store"
	"marketpulse/internal/worker"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to yaml config file")
		addr    = flag.String("addr", "", "HTTP bind address (overrides config)")
		dbPath  = flag.String("db", "", "SQLite DB path (overrides config)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.DB.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()
	db.SetMaxOpenConns(1) // SQLite single writer

	if err := store.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	st := store.NewSQLiteStore(db)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	proc := worker.NewProcessor(st, source.Registry(rng), worker.DefaultHoldWindows(), rng)
	queue := worker.NewQueue(proc, cfg.Worker.QueueSize, time.Duration(cfg.Worker.IdleTimeoutSecs)*time.Second)

	var jan *janitor.Service
	if cfg.Retention.Enabled {
		if err := janitor.ValidateSpec(cfg.Retention.Cron); err != nil {
			log.Fatal().Err(err).Str("cron", cfg.Retention.Cron).Msg("invalid retention cron")
		}
		jan = janitor.NewService(st, time.Duration(cfg.Retention.MaxDays)*24*time.Hour)
		if err := jan.Start(cfg.Retention.Cron); err != nil {
			log.Fatal().Err(err).Msg("start janitor")
		}
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: api.NewServer(st, queue)}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	// No new enqueues once the server is down; let the worker finish
	// what is queued rather than abandoning tasks in_progress.
	queue.Wait()
	if jan != nil {
		jan.Stop()
	}
}
