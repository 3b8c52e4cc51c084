package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/db"
	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type StoreBootstrapErrorCode string

const (
	StoreBootstrapErrorInvalidBackend StoreBootstrapErrorCode = "invalid_backend"
	StoreBootstrapErrorMissingConfig  StoreBootstrapErrorCode = "missing_config"
	StoreBootstrapErrorConnectFailed  StoreBootstrapErrorCode = "connect_failed"
	StoreBootstrapErrorMigrateFailed  StoreBootstrapErrorCode = "migrate_failed"
)

type StoreBootstrapError struct {
	Code    StoreBootstrapErrorCode
	Backend string
	Cause   error
}

func (e *StoreBootstrapError) Error() string {
	if e == nil {
		return "record store bootstrap failed"
	}
	return fmt.Sprintf("record store bootstrap failed (code=%s backend=%q): %v", e.Code, e.Backend, e.Cause)
}

func (e *StoreBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Swapped in tests.
var (
	newRedisEngine     = kv.NewRedis
	newFirestoreEngine = kv.NewFirestore
	newSQLService      = db.NewSQLService
)

// resolveEngine opens the configured record store backend.
func resolveEngine(ctx context.Context, log *logger.Logger, cfg StorageConfig) (kv.Engine, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if missing := missingStoreSetting(backend, cfg); missing != "" {
		err := &StoreBootstrapError{
			Code:    StoreBootstrapErrorMissingConfig,
			Backend: backend,
			Cause:   fmt.Errorf("%s is required for the %s backend", missing, backend),
		}
		log.Error("Record store selection failed", "backend", backend, "error_code", err.Code, "error", err)
		return nil, err
	}

	log.Info("Selecting record store", "backend", backend)

	var (
		engine kv.Engine
		err    error
	)
	switch backend {
	case BackendMemory:
		log.Warn("memory record store selected; data is lost on restart")
		engine = kv.NewMemory()
	case BackendSQLite, BackendPostgres:
		engine, err = openSQLEngine(log, backend, cfg)
	case BackendRedis:
		engine, err = newRedisEngine(ctx, kv.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, log)
	case BackendFirestore:
		engine, err = newFirestoreEngine(ctx, kv.FirestoreConfig{
			ProjectID: cfg.FirestoreProject,
			Prefix:    cfg.FirestorePrefix,
		}, log)
	default:
		err = &StoreBootstrapError{
			Code:    StoreBootstrapErrorInvalidBackend,
			Backend: backend,
			Cause:   fmt.Errorf("unsupported storage backend %q", backend),
		}
	}
	if err != nil {
		classified := classifyStoreBootstrapError(backend, err)
		log.Error("Record store bootstrap failed", "backend", backend, "error_code", storeBootstrapErrorCode(classified), "error", classified)
		return nil, classified
	}
	return engine, nil
}

func openSQLEngine(log *logger.Logger, backend string, cfg StorageConfig) (kv.Engine, error) {
	dsn := cfg.PostgresDSN
	if backend == BackendSQLite {
		dsn = cfg.SQLitePath
	}
	svc, err := newSQLService(log, backend, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(svc.DB()); err != nil {
			return nil, &StoreBootstrapError{Code: StoreBootstrapErrorMigrateFailed, Backend: backend, Cause: err}
		}
	}
	return kv.NewSQL(svc.DB(), log), nil
}

func missingStoreSetting(backend string, cfg StorageConfig) string {
	switch backend {
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return "SQLITE_PATH"
		}
	case BackendPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return "POSTGRES_DSN"
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return "REDIS_ADDR"
		}
	case BackendFirestore:
		if strings.TrimSpace(cfg.FirestoreProject) == "" {
			return "FIRESTORE_PROJECT"
		}
	}
	return ""
}

func classifyStoreBootstrapError(backend string, err error) error {
	var bootstrapErr *StoreBootstrapError
	if errors.As(err, &bootstrapErr) {
		return bootstrapErr
	}
	return &StoreBootstrapError{
		Code:    StoreBootstrapErrorConnectFailed,
		Backend: backend,
		Cause:   err,
	}
}

func storeBootstrapErrorCode(err error) StoreBootstrapErrorCode {
	var bootstrapErr *StoreBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StoreBootstrapErrorConnectFailed
}

// Migrate creates the record table for the sql backends. Other backends are
// schemaless and need nothing.
func Migrate(log *logger.Logger, cfg StorageConfig) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend != BackendSQLite && backend != BackendPostgres {
		log.Info("nothing to migrate", "backend", backend)
		return nil
	}
	if missing := missingStoreSetting(backend, cfg); missing != "" {
		return &StoreBootstrapError{
			Code:    StoreBootstrapErrorMissingConfig,
			Backend: backend,
			Cause:   fmt.Errorf("%s is required for the %s backend", missing, backend),
		}
	}
	dsn := cfg.PostgresDSN
	if backend == BackendSQLite {
		dsn = cfg.SQLitePath
	}
	svc, err := newSQLService(log, backend, dsn)
	if err != nil {
		return classifyStoreBootstrapError(backend, err)
	}
	sqlDB, err := svc.DB().DB()
	if err == nil {
		defer sqlDB.Close()
	}
	if err := db.AutoMigrateAll(svc.DB()); err != nil {
		return &StoreBootstrapError{Code: StoreBootstrapErrorMigrateFailed, Backend: backend, Cause: err}
	}
	log.Info("migration complete", "backend", backend)
	return nil
}
