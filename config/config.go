// Package config holds the viper-backed configuration singleton.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

var v *viper.Viper

func init() {
	v = viper.New()

	// Set default values
	v.SetDefault("pool.workers", 2)
	v.SetDefault("pacing.tick", 16*time.Millisecond)
	v.SetDefault("preview.addr", "localhost:28750")

	// Default directory for persisted rendered-frame caches
	v.SetDefault("cache.dir", filepath.Join(xdg.StateHome, "vecplay", "frames"))

	// Environment variables
	v.AutomaticEnv()
	v.BindEnv("pool.workers", "VECPLAY_POOL_WORKERS")
	v.BindEnv("pacing.tick", "VECPLAY_TICK")
	v.BindEnv("preview.addr", "VECPLAY_PREVIEW_ADDR")
	v.BindEnv("cache.dir", "VECPLAY_CACHE_DIR")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths := []string{
		".",
		"$HOME/.vecplay",
		"/etc/vecplay",
	}
	for _, path := range configPaths {
		v.AddConfigPath(os.ExpandEnv(path))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Sprintf("Fatal error reading config file: %s", err))
		}
		// Config file not found; ignore error and use defaults
	}
}

// GetPoolWorkers returns the renderer pool worker count.
func GetPoolWorkers() int {
	return v.GetInt("pool.workers")
}

// GetTickInterval returns the pacing tick interval.
func GetTickInterval() time.Duration {
	return v.GetDuration("pacing.tick")
}

// GetPreviewAddr returns the preview server listen address.
func GetPreviewAddr() string {
	return v.GetString("preview.addr")
}

// GetCacheDir returns the directory for persisted frame caches.
func GetCacheDir() string {
	return v.GetString("cache.dir")
}
