package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/souling-backend/internal/data/db"
	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// Engine returns a fresh store. TEST_KV_BACKEND=sqlite switches the whole
// repo suite onto a temp-file SQLite database.
func Engine(tb testing.TB) kv.Engine {
	tb.Helper()
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_KV_BACKEND")), "sqlite") {
		return SQLite(tb, filepath.Join(tb.TempDir(), "repos.db"))
	}
	return kv.NewMemory()
}

// SQLite opens (or reopens) the database at path. The engine is closed on cleanup.
func SQLite(tb testing.TB, path string) kv.Engine {
	tb.Helper()
	svc, err := db.NewSQLService(Logger(tb), db.DriverSQLite, path)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(svc.DB()); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	engine := kv.NewSQL(svc.DB(), Logger(tb))
	tb.Cleanup(func() { _ = engine.Close() })
	return engine
}
