package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is everything the process needs from the environment.
// Required values are validated up front so a misconfigured deploy
// dies at boot instead of at 3am when the sync loop first fires.
type Config struct {
	Addr          string
	CacheDir      string
	SourceURL     string
	SourceKey     string
	BackupKeyHash string // SHA-256 hex of the backup passkey
	SyncInterval  time.Duration
}

// DBPath is the sqlite file under the cache dir.
func (c Config) DBPath() string {
	return filepath.Join(c.CacheDir, "playbase.db")
}

func loadConfig() (Config, error) {
	cfg := Config{
		Addr:          ":8080",
		CacheDir:      os.Getenv("PLAYBASE_CACHE_DIR"),
		SourceURL:     os.Getenv("PLAYBASE_SOURCE_URL"),
		SourceKey:     os.Getenv("PLAYBASE_SOURCE_KEY"),
		BackupKeyHash: os.Getenv("PLAYBASE_BACKUP_KEY"),
		SyncInterval:  time.Hour,
	}

	if addr := os.Getenv("PLAYBASE_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if raw := os.Getenv("PLAYBASE_SYNC_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("bad PLAYBASE_SYNC_INTERVAL %q: %w", raw, err)
		}
		cfg.SyncInterval = d
	}

	required := map[string]string{
		"PLAYBASE_CACHE_DIR":  cfg.CacheDir,
		"PLAYBASE_SOURCE_URL": cfg.SourceURL,
		"PLAYBASE_SOURCE_KEY": cfg.SourceKey,
		"PLAYBASE_BACKUP_KEY": cfg.BackupKeyHash,
	}
	for name, val := range required {
		if val == "" {
			return cfg, fmt.Errorf("%s is required", name)
		}
	}
	return cfg, nil
}
