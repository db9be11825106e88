package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
// Both binaries read the same structure and use the sections they need.
type Config struct {
	Log struct {
		Level string
	}
	Server struct {
		Addr           string
		AllowedOrigins []string
		HashCost       int
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Console struct {
		Addr       string
		APIBaseURL string
		Locale     string
		SessionTTL time.Duration
	}
	Backup struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	return load(".")
}

func load(dir string) (Config, error) {
	// a missing .env is fine; variables already in the environment win
	_ = godotenv.Load(dir + "/.env")

	v := viper.New()
	v.SetEnvPrefix("USERCONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.allowedorigins", []string{"http://localhost", "http://localhost:8080"})
	v.SetDefault("server.hashcost", 10)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/users.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("console.addr", "0.0.0.0:8080")
	v.SetDefault("console.apibaseurl", "http://localhost:8000")
	v.SetDefault("console.locale", "en")
	v.SetDefault("console.sessionttl", 30*time.Minute)
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.keyprefix", "user-console/snapshots")
	v.SetDefault("backup.region", "us-east-1")
	v.SetDefault("backup.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Console.SessionTTL <= 0 {
		return fmt.Errorf("console session ttl must be positive")
	}
	return nil
}
