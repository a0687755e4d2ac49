package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Search
		Libraries
		Cache
		Tasks
		Demo
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path   string
		LogSQL bool
	}
	Search struct {
		DefaultLimit int           // page size when the caller gives none
		Timeout      time.Duration // budget for one search request
		Verbose      bool          // log the built predicate of every search
	}
	Libraries struct {
		CatalogName string   // name the gorm catalog is registered under
		Roots       []string // directories scanned for Calibre libraries
	}
	Cache struct {
		RedisURL string // empty disables the result cache
		TTL      time.Duration
		Timeout  time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration // stuck tasks go back to their queue after this
		CleanupInterval time.Duration
	}
	Demo struct {
		Enabled bool   // Serve a read-only demo catalog
		DBPath  string // Catalog used in demo mode, seeded when empty
	}
)

// NewConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first if present; real environment
// variables win over it.
func NewConfig() *Config {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_sql", false)

	// Search defaults
	v.SetDefault("search_default_limit", 50)
	v.SetDefault("search_timeout", "30s")
	v.SetDefault("search_verbose", false)

	// Library defaults
	v.SetDefault("catalog_name", DefaultCatalogName)
	v.SetDefault("library_roots", "")

	// Result cache defaults
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("cache_timeout", "150ms")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Demo mode defaults
	v.SetDefault("demo_mode", false)
	v.SetDefault("demo_db_path", "./demo/demo.db")
	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:   v.GetString("DATABASE_PATH"),
			LogSQL: v.GetBool("DATABASE_LOG_SQL"),
		},
		Search: Search{
			DefaultLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
			Timeout:      v.GetDuration("SEARCH_TIMEOUT"),
			Verbose:      v.GetBool("SEARCH_VERBOSE"),
		},
		Libraries: Libraries{
			CatalogName: v.GetString("CATALOG_NAME"),
			Roots:       splitList(v.GetString("LIBRARY_ROOTS")),
		},
		Cache: Cache{
			RedisURL: v.GetString("REDIS_URL"),
			TTL:      v.GetDuration("CACHE_TTL"),
			Timeout:  v.GetDuration("CACHE_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
			DBPath:  v.GetString("DEMO_DB_PATH"),
		},
	}
}

// splitList splits a comma or colon separated list, dropping blanks.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ':' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
