package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/cuttlefish/cuttlefish/config"
	"github.com/cuttlefish/cuttlefish/internal/models"
)

type Repositories struct {
	AppRepository          AppRepository
	DeliveryRepository     DeliveryRepository
	DeliveryLinkRepository DeliveryLinkRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		AppRepository:          NewAppRepository(db),
		DeliveryRepository:     NewDeliveryRepository(db),
		DeliveryLinkRepository: NewDeliveryLinkRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.App{},
		&models.Delivery{},
		&models.DeliveryLink{},
		&models.Team{},
	)

	sqlDB.Close()

	sqlDB, _ = db.DB()
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
