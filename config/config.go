package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Remote   Remote
	Device   Device
	Sync     Sync
}

type Server struct {
	Port string
}

type Database struct {
	Driver string
	DSN    string
}

type Remote struct {
	BaseURL        string
	RequestTimeout time.Duration
	ProbeInterval  time.Duration
}

type Device struct {
	ID         string
	AppVersion string
}

type Sync struct {
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SERVER_PORT", "8090")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "fieldsync.db")
	viper.SetDefault("REMOTE_BASE_URL", "http://localhost:8000")
	viper.SetDefault("SYNC_REQUEST_TIMEOUT", "15s")
	viper.SetDefault("CONNECTIVITY_PROBE_INTERVAL", "30s")
	viper.SetDefault("SYNC_BACKOFF_BASE", "30s")
	viper.SetDefault("SYNC_BACKOFF_CAP", "1h")
	viper.SetDefault("DEVICE_ID", "field-agent")
	viper.SetDefault("APP_VERSION", "fieldsync-1.0")

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Driver = viper.GetString("DATABASE_DRIVER")
	config.Database.DSN = viper.GetString("DATABASE_DSN")
	config.Remote.BaseURL = viper.GetString("REMOTE_BASE_URL")
	config.Remote.RequestTimeout = viper.GetDuration("SYNC_REQUEST_TIMEOUT")
	config.Remote.ProbeInterval = viper.GetDuration("CONNECTIVITY_PROBE_INTERVAL")
	config.Sync.BackoffBase = viper.GetDuration("SYNC_BACKOFF_BASE")
	config.Sync.BackoffCap = viper.GetDuration("SYNC_BACKOFF_CAP")
	config.Device.ID = viper.GetString("DEVICE_ID")
	config.Device.AppVersion = viper.GetString("APP_VERSION")

	log.Info().Interface("config", config).Msg("Config loaded")
	return &config, nil
}
