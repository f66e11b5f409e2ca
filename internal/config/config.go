package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`     // SQLite database file; ":memory:" for in-memory
	IDField string `mapstructure:"id_field"` // surrogate id column name
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("database.path", "./data/records.db")
	viper.SetDefault("database.id_field", "id")
	viper.SetDefault("logging.level", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file means defaults apply; anything else is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
