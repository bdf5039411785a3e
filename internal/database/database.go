package database

import (
	"fmt"

	"homebroker/config"
	"homebroker/internal/domain"
	"homebroker/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/op/go-logging"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = logging.MustGetLogger("db")

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
	)
}

// SeedAdmin creates the configured admin account if it does not exist yet.
// Nothing happens when no admin email is configured.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	if cfg.Email == "" || cfg.Password == "" {
		return
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.Email).Count(&count).Error; err != nil {
		log.Errorf("seed admin: %v", err)
		return
	}
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("seed admin: %v", err)
		return
	}
	admin := &models.User{
		Email:        cfg.Email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Errorf("seed admin: %v", err)
		return
	}
	log.Infof("seeded admin account %s", cfg.Email)
}
