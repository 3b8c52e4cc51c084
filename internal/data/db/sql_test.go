package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"a.db":                         "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		"file:a.db?cache=shared":       "file:a.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		"a.db?_pragma=foreign_keys(1)": "a.db?_pragma=foreign_keys(1)",
	}
	for in, want := range cases {
		if got := SQLiteDSN(in); got != want {
			t.Fatalf("SQLiteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	svc, err := NewSQLService(logger.Nop(), DriverSQLite, filepath.Join(t.TempDir(), "souling.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := svc.DB().DB()
		_ = sqlDB.Close()
	})

	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !svc.DB().Migrator().HasTable("kv_record") {
		t.Fatalf("kv_record table missing after migrate")
	}
	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver: got %q", svc.Driver())
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewSQLService(logger.Nop(), "oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
