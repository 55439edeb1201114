// Package config loads the YAML configuration of the tnr server.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	Graph  string       `yaml:"graph"`
	TNR    TNRConfig    `yaml:"tnr"`
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
}

// TNRConfig controls preprocessing.
type TNRConfig struct {
	TransitNodes   int           `yaml:"transit_nodes"`
	Workers        int           `yaml:"workers"`
	SymmetricTable bool          `yaml:"symmetric_table"`
	OracleTimeout  time.Duration `yaml:"oracle_timeout"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	CORSOrigin    string        `yaml:"cors_origin"`
	QueryTimeout  time.Duration `yaml:"query_timeout"`
}

// CacheConfig selects the distance cache. An empty RedisAddr selects the
// in-memory cache; a zero Size disables caching altogether.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	Size      int           `yaml:"size"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Graph: "graph.bin",
		TNR: TNRConfig{
			TransitNodes:   1000,
			Workers:        runtime.NumCPU(),
			SymmetricTable: true,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   5 * time.Second,
			WriteTimeout:  5 * time.Second,
			MaxConcurrent: runtime.NumCPU() * 2,
			QueryTimeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			TTL:  10 * time.Minute,
			Size: 100_000,
		},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.TNR.TransitNodes < 0 {
		errs = append(errs, fmt.Errorf("tnr.transit_nodes must be non-negative, got %d", c.TNR.TransitNodes))
	}
	if c.TNR.Workers < 0 {
		errs = append(errs, fmt.Errorf("tnr.workers must be non-negative, got %d", c.TNR.Workers))
	}
	if c.Server.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must be non-negative, got %d", c.Cache.Size))
	}
	for name, d := range map[string]time.Duration{
		"tnr.oracle_timeout":   c.TNR.OracleTimeout,
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"server.query_timeout": c.Server.QueryTimeout,
		"cache.ttl":            c.Cache.TTL,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative, got %s", name, d))
		}
	}
	return errors.Join(errs...)
}
