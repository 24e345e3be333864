package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Remote     RemoteConfig     `mapstructure:"remote"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	// Driver selects "postgres" or "sqlite". SQLite is for single-operator
	// local use; Path is only read in that mode.
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timezone        string        `mapstructure:"timezone"`
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type EncryptionConfig struct {
	Key string `mapstructure:"key"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
	AdminUser     string        `mapstructure:"admin_user"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type RemoteConfig struct {
	ClientTimeout     time.Duration `mapstructure:"client_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	RequestBurst      int           `mapstructure:"request_burst"`
}

type WorkerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	SyncInterval   time.Duration `mapstructure:"sync_interval"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Products       []string      `mapstructure:"products"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
