package repo

import (
	"fmt"
	"strings"

	"memory-service/internal/config"
	"memory-service/internal/model"
	"memory-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	conf := config.GlobalConfig.Database
	var err error
	DB, err = Open(conf.Driver, conf.DSN)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.String("driver", conf.Driver),
			zap.Error(err),
		)
	}

	if err := Migrate(DB); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
}

// Open picks the gorm dialector for driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Player{},
		&model.Score{},
		&model.GameLog{},
	)
}
