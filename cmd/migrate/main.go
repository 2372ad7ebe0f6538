package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"clan-hub/internal/config"
	"clan-hub/internal/logger"
	"clan-hub/internal/model"
	"clan-hub/internal/service"

	"gorm.io/gorm"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	leaderUser := flag.String("leader", "", "username of the leader account to seed (optional)")
	leaderPass := flag.String("leader-pass", "", "password of the seeded leader")
	leaderNick := flag.String("leader-nick", "", "nick of the seeded leader")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	db, err := cfg.OpenGormDB()
	if err != nil {
		log.Fatal("db connect failed: ", err)
	}

	// Step 1: tables
	if err := model.Migrate(db); err != nil {
		log.Fatal("migrate failed: ", err)
	}
	logger.Info("migrate: tables ready")

	// Step 2: leader account
	if *leaderUser != "" {
		if err := seedLeader(context.Background(), db, *leaderUser, *leaderPass, *leaderNick); err != nil {
			log.Fatal("seed leader failed: ", err)
		}
	}

	logger.Info("=== all done ===")
}

func seedLeader(ctx context.Context, db *gorm.DB, username, password, nick string) error {
	var existing model.Member
	err := db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		logger.Info("migrate: promoting existing member", "username", username)
		return db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"role":   model.RoleLeader,
			"status": model.StatusApproved,
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	m, err := service.NewMember(username, password, nick, model.RoleLeader, model.StatusApproved)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	logger.Info("migrate: leader created", "id", m.ID, "username", username)
	return nil
}
