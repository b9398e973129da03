package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/cuttlefish/cuttlefish/config"
	"github.com/cuttlefish/cuttlefish/internal/database"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/server"
)

func main() {
	app := &cli.App{
		Name:  "cuttlefish",
		Usage: "Transactional email delivery with open and click tracking",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: runMigrations,
			},
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: runServer,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	return database.InitCuttlefishDatabase(&database.DatabaseConfig{
		DBName:          cfg.DatabaseConfig.DBName,
		Host:            cfg.DatabaseConfig.Host,
		Port:            cfg.DatabaseConfig.Port,
		User:            cfg.DatabaseConfig.User,
		Password:        cfg.DatabaseConfig.Password,
		MaxConn:         cfg.DatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DatabaseConfig.LogLevel,
		SSLMode:         cfg.DatabaseConfig.SSLMode,
	})
}

func runMigrations(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
		return err
	}

	log.Println("Database migration completed successfully")
	return nil
}

func runServer(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Cuttlefish starting up...")

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return err
	}

	return srv.Run()
}
