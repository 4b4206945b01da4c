package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ticketwatch/internal/config"
	"ticketwatch/internal/db"
	"ticketwatch/internal/httpapi"
	"ticketwatch/internal/providers/ticketmaster"
	"ticketwatch/internal/queue"
	"ticketwatch/internal/repositories"
	"ticketwatch/internal/repositories/jsonfile"
	"ticketwatch/internal/repositories/postgres"
	"ticketwatch/internal/scheduler"
	"ticketwatch/internal/services/monitoring"
	"ticketwatch/internal/telegram"
)

type Builder struct {
	cfg          *config.Config
	basePath     string
	ensureSchema bool

	pool     *pgxpool.Pool
	repo     repositories.KnownSetRepository
	notifier monitoring.Notifier
	fetcher  monitoring.Fetcher
	parser   monitoring.PageParser

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{
		cfg:          cfg,
		ensureSchema: true,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithBasePath(basePath string) BuilderOption {
	return func(b *Builder) {
		b.basePath = basePath
	}
}

func WithEnsureSchema(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.ensureSchema = enabled
	}
}

func WithDBPool(pool *pgxpool.Pool) BuilderOption {
	return func(b *Builder) {
		b.pool = pool
	}
}

func WithRepository(repo repositories.KnownSetRepository) BuilderOption {
	return func(b *Builder) {
		b.repo = repo
	}
}

func WithNotifier(notifier monitoring.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithFetcher(fetcher monitoring.Fetcher) BuilderOption {
	return func(b *Builder) {
		b.fetcher = fetcher
	}
}

func WithParser(parser monitoring.PageParser) BuilderOption {
	return func(b *Builder) {
		b.parser = parser
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	basePath := b.basePath
	if basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		basePath = wd
	}

	app := &App{Config: b.cfg}

	if b.repo == nil {
		repo, err := b.buildRepository(ctx, app, basePath)
		if err != nil {
			return nil, err
		}
		b.repo = repo
	}
	app.Repo = b.repo

	if b.notifier == nil {
		b.notifier = telegram.NewSender(b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID,
			telegram.WithCalendar(telegram.ParseCalendar(b.cfg.TelegramCalendar)),
		)
	}
	app.Notifier = b.notifier

	if b.fetcher == nil {
		b.fetcher = ticketmaster.NewFetcher(b.cfg.FetchTimeout, b.cfg.UserAgent)
	}
	if b.parser == nil {
		b.parser = ticketmaster.NewParser(b.cfg.QueuePattern)
	}

	poller := monitoring.NewPoller(b.fetcher, b.parser)
	app.Monitor = monitoring.NewService(app.Repo, app.Notifier, poller, queue.NewDetector(), b.cfg.SourceURLs)

	if b.scheduler == nil {
		b.scheduler = scheduler.New(b.cfg.Interval, app.Monitor)
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		handler := httpapi.NewHandler(app.Monitor)
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	log.Printf("monitoring %d sources with %s known set", len(b.cfg.SourceURLs), b.cfg.KnownSetBackend)
	return app, nil
}

func (b *Builder) buildRepository(ctx context.Context, app *App, basePath string) (repositories.KnownSetRepository, error) {
	switch b.cfg.KnownSetBackend {
	case config.BackendPostgres:
		if b.pool == nil {
			pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
			if err != nil {
				return nil, err
			}
			b.pool = pool
			app.ownsPool = true
		}
		app.Pool = b.pool

		if b.ensureSchema {
			path, err := filepath.Abs(basePath)
			if err != nil {
				return nil, err
			}
			if err := db.EnsureSchema(ctx, b.pool, path); err != nil {
				return nil, err
			}
		}
		return postgres.NewKnownSetRepository(b.pool), nil

	case config.BackendFile, "":
		dir := b.cfg.DataDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(basePath, dir)
		}
		return jsonfile.NewKnownSetRepository(dir), nil

	default:
		return nil, fmt.Errorf("unknown known set backend %q", b.cfg.KnownSetBackend)
	}
}
