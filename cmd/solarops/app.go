package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/email"
	"solarops/internal/ocr"
	"solarops/internal/parser"
	_ "solarops/internal/parser/claude" // registers the claude provider
	_ "solarops/internal/parser/gemini" // registers the gemini provider
	_ "solarops/internal/parser/openai" // registers the openai provider
	"solarops/internal/port"
	"solarops/internal/repository/postgres"
	"solarops/internal/repository/sqlite"
	"solarops/internal/service"
	"solarops/internal/storage/local"
	s3storage "solarops/internal/storage/s3"
	"solarops/internal/suggestion"
)

// appEnv holds the wired services shared by every subcommand.
type appEnv struct {
	DB         *sqlx.DB
	Records    port.RecordRepository
	Storage    port.ObjectStorage
	Notifier   port.Notifier
	Dispatcher *service.NotificationDispatcher
	Review     service.ReviewService
	Ingest     service.IngestService
}

// Close releases the database handle.
func (e *appEnv) Close() {
	if e.DB != nil {
		if err := e.DB.Close(); err != nil {
			zap.L().Warn("closing database", zap.Error(err))
		}
	}
}

// openRecordStore connects to the configured database. SQLite files are
// migrated on open; postgres schemas are managed by `solarops migrate`.
func openRecordStore(ctx context.Context, dbCfg *config.DBConfig) (*sqlx.DB, port.RecordRepository, error) {
	switch dbCfg.Driver {
	case "sqlite", "":
		db, err := sqlite.Open(dbCfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, sqlite.NewRecordRepo(db), nil
	case "postgres":
		db, err := postgres.NewDB(dbCfg)
		if err != nil {
			return nil, nil, err
		}
		return db, postgres.NewRecordRepo(db), nil
	default:
		return nil, nil, eris.Errorf("unknown db driver %q", dbCfg.Driver)
	}
}

func newObjectStorage(c *config.Config) (port.ObjectStorage, error) {
	switch c.Storage.Provider {
	case "local", "":
		return local.NewLocalStore(c.Storage.LocalDir, c.Email.BaseURL)
	case "s3":
		return s3storage.NewS3Client(&c.S3)
	default:
		return nil, eris.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
}

func criticalFields(names []string) []domain.FieldName {
	var out []domain.FieldName
	for _, n := range names {
		if !domain.IsKnownField(n) {
			zap.L().Warn("ignoring unknown critical field", zap.String("field", n))
			continue
		}
		out = append(out, domain.FieldName(n))
	}
	return out
}

// initApp wires the record store, storage, text acquisition, the optional
// model provider, notifications and the services on top of them.
func initApp(ctx context.Context) (*appEnv, error) {
	db, records, err := openRecordStore(ctx, &cfg.DB)
	if err != nil {
		return nil, eris.Wrap(err, "open record store")
	}
	env := &appEnv{DB: db, Records: records}

	env.Storage, err = newObjectStorage(cfg)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init storage")
	}

	text, err := ocr.NewTextSource(cfg.OCR, env.Storage, cfg.S3.Bucket)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init text source")
	}

	var (
		alt       port.FieldExtractor
		suggester suggestion.Generator = suggestion.NewCanned()
	)
	if cfg.Parser.Enabled {
		provider, perr := parser.NewFromConfig(&cfg.Parser)
		if perr != nil {
			env.Close()
			return nil, eris.Wrap(perr, "init parser")
		}
		alt = provider
		if cfg.Suggestion.Provider == "model" {
			suggester = suggestion.NewModel(provider)
		}
		zap.L().Info("model extraction enabled",
			zap.String("provider", cfg.Parser.Primary.Provider),
			zap.String("mode", cfg.Parser.Mode))
	} else if cfg.Suggestion.Provider == "model" {
		zap.L().Warn("suggestion.provider=model requires parser.enabled; using canned suggestions")
	}

	env.Notifier, err = email.NewNotifier(&cfg.Email)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "init notifier")
	}
	env.Dispatcher = service.NewNotificationDispatcher(env.Notifier, service.DispatcherConfig{
		Workers:   cfg.Notify.Workers,
		Buffer:    cfg.Notify.Buffer,
		Timeout:   time.Duration(cfg.Notify.TimeoutSecs) * time.Second,
		Recipient: cfg.Email.Recipient,
		BaseURL:   cfg.Email.BaseURL,
	})

	var policy domain.TransitionPolicy
	if cfg.Review.StrictTransitions {
		policy = domain.StrictTransitions{}
	}
	env.Review = service.NewReviewService(records, policy, env.Dispatcher)
	env.Ingest = service.NewIngestService(env.Review, env.Storage, text, alt, suggester, service.IngestConfig{
		Bucket:         cfg.S3.Bucket,
		MaxFileSizeMB:  cfg.S3.MaxFileSizeMB,
		PresignExpiry:  cfg.S3.PresignExpiry,
		CriticalFields: criticalFields(cfg.Parser.CriticalFields),
	})

	return env, nil
}

// runDispatcher starts the notification workers and returns a function that
// stops them and waits for queued mail to go out.
func runDispatcher(d *service.NotificationDispatcher) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Start(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
