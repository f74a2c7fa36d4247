// runloopd selects the best execution backend for the host at startup,
// installs it as the process-wide default, and serves the selection
// diagnostics API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/seantiz/runloop/internal/api"
	"github.com/seantiz/runloop/internal/config"
	"github.com/seantiz/runloop/internal/loop"
	"github.com/seantiz/runloop/internal/model"
	"github.com/seantiz/runloop/internal/selector"
	"github.com/seantiz/runloop/internal/store"
)

const recordTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("runloopd: %v", err)
	}
}

func run() error {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg)

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	rt := loop.NewRuntime()
	sel := selector.New(rt, logger)

	ec, err := sel.Configure()
	if err != nil {
		return fmt.Errorf("configure execution backend: %w", err)
	}

	desc := sel.Describe()
	ev := &model.ConfigureEvent{
		ID:                model.NewID(),
		Platform:          desc.Platform,
		Backend:           string(desc.Backend),
		OptionalAvailable: desc.OptionalAvailable,
		RuntimeVersion:    desc.RuntimeVersion,
		CreatedAt:         time.Now().UTC(),
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	if err := st.RecordConfigure(recordCtx, ev); err != nil {
		logger.Warn("record startup configuration", "error", err)
	}
	cancel()

	srv := api.NewServer(cfg.ListenAddr, st, sel, ec, logger)
	return srv.Run()
}
