package app

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"ticketwatch/internal/config"
	"ticketwatch/internal/repositories"
	"ticketwatch/internal/scheduler"
	"ticketwatch/internal/services/monitoring"
)

type App struct {
	Config    *config.Config
	Pool      *pgxpool.Pool
	Repo      repositories.KnownSetRepository
	Notifier  monitoring.Notifier
	Monitor   *monitoring.Service
	Scheduler *scheduler.Scheduler
	Server    *http.Server

	ownsPool bool
}

type closer interface {
	Close(ctx context.Context) error
}

func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		log.Printf("HTTP server listening on %s", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	err := a.Server.Shutdown(ctx)
	if monitorErr := a.Monitor.Shutdown(ctx); monitorErr != nil {
		log.Printf("background check did not finish: %v", monitorErr)
	}

	if c, ok := a.Notifier.(closer); ok {
		if closeErr := c.Close(ctx); closeErr != nil {
			log.Printf("notifier close error: %v", closeErr)
		}
	}
	if a.ownsPool {
		a.Pool.Close()
	}
	return err
}
