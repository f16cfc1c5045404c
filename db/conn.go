// Package db opens the configured database and runs migrations
package db

import (
	"fmt"
	"os"

	"chaton/chat-api/config"
	"chaton/chat-api/model"
	"chaton/chat-api/util"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	dsn := viper.GetString("database.dsn")

	switch viper.GetString("database.type") {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres, %w", err)
		}
	default:
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(dsn); err != nil {
				if err == os.ErrNotExist {
					return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
				}
			}
		}

		db, err = gorm.Open(sqlite.Open(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
		}
	}

	if config.ResetDB() {
		err = db.Migrator().DropTable(model.Message{}, model.Chat{}, model.ResendRequest{}, model.User{}, "chat_members")
		if err != nil {
			return nil, fmt.Errorf("failed to drop tables, %w", err)
		}
	}

	err = db.AutoMigrate(model.User{}, model.Chat{}, model.Message{}, model.ResendRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
