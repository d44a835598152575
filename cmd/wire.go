package cmd

import (
	"context"
	"errors"
	"fmt"

	firestorestore "github.com/PabloGalante/farum-probe/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/farum-probe/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/farum-probe/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/farum-probe/internal/app/engine"
	"github.com/PabloGalante/farum-probe/internal/app/probelog"
	"github.com/PabloGalante/farum-probe/internal/app/questions"
	"github.com/PabloGalante/farum-probe/internal/config"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

type app struct {
	engine *engine.Engine
	events *probelog.Service
	close  func() error
}

// backend is a store that keeps state and probe events in one place.
type backend interface {
	domain.StateStore
	domain.EventSink
	domain.EventLog
}

type memoryBackend struct {
	*memstore.StateStore
	*memstore.EventStore
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, func() error, error) {
	log := observability.Logger()
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		log.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)
		s, err := sqlitestore.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite store: %w", err)
		}
		return s, s.Close, nil

	case config.BackendFirestore:
		log.Info("using firestore storage", "project", cfg.GCP.Project)
		s, err := firestorestore.NewStore(ctx, cfg.GCP.Project)
		if err != nil {
			return nil, nil, fmt.Errorf("wire firestore store: %w", err)
		}
		return s, s.Close, nil

	case config.BackendMemory:
		log.Info("using in-memory storage")
		return memoryBackend{memstore.NewStateStore(), memstore.NewEventStore()}, noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func wireApp(ctx context.Context, cfg *config.Config) (*app, error) {
	lex, err := lexicon.Load(cfg.Lexicon.Path)
	if err != nil {
		return nil, fmt.Errorf("wire lexicon: %w", err)
	}
	pools, err := lexicon.LoadPools(cfg.Questions.Path)
	if err != nil {
		return nil, fmt.Errorf("wire question pools: %w", err)
	}
	bounds, err := cfg.Bounds()
	if err != nil {
		return nil, fmt.Errorf("wire press bounds: %w", err)
	}

	store, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sensitivity := cfg.Overwhelm.Sensitivity
	eng, err := engine.New(engine.Options{
		Lexicon:     lex,
		Pools:       pools,
		Bounds:      &bounds,
		Sensitivity: &sensitivity,
		Store:       store,
		StateTTL:    cfg.StateTTL(),
		Sink:        probelog.Tee(observability.NewSlogSink(), store),
		Rand:        questions.NewRand(cfg.Random.Seed),
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("wire engine: %w", err), closeStore())
	}

	return &app{
		engine: eng,
		events: probelog.NewService(store),
		close:  closeStore,
	}, nil
}
