package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type SQLService struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// NewSQLService opens sqlite (pure-Go modernc driver) or postgres (pgx).
func NewSQLService(logg *logger.Logger, driver, dsn string) (*SQLService, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	serviceLog := logg.With("service", "SQLService", "driver", driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("missing sqlite path")
		}
		dialector = &sqlite.Dialector{DriverName: "sqlite", DSN: SQLiteDSN(dsn)}
	case DriverPostgres:
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("missing postgres dsn")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection also keeps ":memory:" coherent.
		sqlDB.SetMaxOpenConns(1)
	}

	serviceLog.Info("sql store connected")
	return &SQLService{db: db, log: serviceLog, driver: driver}, nil
}

func (s *SQLService) DB() *gorm.DB { return s.db }

func (s *SQLService) Driver() string { return s.driver }

// SQLiteDSN appends the pragmas the store relies on unless the caller set them.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
