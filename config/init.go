package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	StorageConfig  *StorageConfig
	DNSConfig      *DNSConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		StorageConfig:  &StorageConfig{},
		DNSConfig:      &DNSConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading cuttlefish config: %v", err)
	}

	if config.AppConfig.CanonicalHostname == "" {
		config.AppConfig.CanonicalHostname = config.AppConfig.CuttlefishDomain + "."
	}

	return config, nil
}
