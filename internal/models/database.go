package models

import (
	"fmt"

	"github.com/carewise/carehub/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Task{},
		&SpamRule{},
		&SpamDecision{},
		&TaskRuleMatch{},
		&SystemConfig{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default configuration rows and a starter rule
// set if the tables are empty.
func SeedDefaultData() error {
	defaultConfigs := []SystemConfig{
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
		{Key: "spam_auto_archive", Value: "true", Type: "bool", Group: "spam", Label: "Auto-archive likely_spam messages"},
		{Key: "escalation_business_days", Value: "2", Type: "int", Group: "escalation", Label: "Business days before a pending task escalates"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("key = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	// Starter phrase rules, global scope. Moderators grow this list from
	// the review queue.
	var ruleCount int64
	DB.Model(&SpamRule{}).Count(&ruleCount)
	if ruleCount == 0 {
		starter := []SpamRule{
			{Pattern: "free gift", PatternNorm: "free gift", Mode: "contains", Enabled: true},
			{Pattern: "you have won", PatternNorm: "you have won", Mode: "contains", Enabled: true},
			{Pattern: "claim your prize", PatternNorm: "claim your prize", Mode: "contains", Enabled: true},
			{Pattern: "unsubscribe", PatternNorm: "unsubscribe", Mode: "lone", Enabled: true},
		}
		for _, r := range starter {
			if err := DB.Create(&r).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
