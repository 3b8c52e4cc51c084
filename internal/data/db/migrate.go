package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/souling-backend/internal/data/kv"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&kv.SQLRecord{},
	)
}
