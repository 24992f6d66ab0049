package database

import (
	"washfamily/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// ModelsToMigrate lists every table the gateway owns. Orders, availability
// and users live upstream and are never persisted here.
var ModelsToMigrate = []any{
	&models.UpstreamRequest{},
}

func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range ModelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes adds the composite indexes GORM tags cannot express.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_upstream_requests_order_created ON upstream_requests(order_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_upstream_requests_created_at ON upstream_requests(created_at)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	return nil
}
