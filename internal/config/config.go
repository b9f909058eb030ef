package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		Path string `yaml:"path"`
	} `yaml:"db"`
	Worker struct {
		QueueSize       int `yaml:"queue_size"`
		IdleTimeoutSecs int `yaml:"idle_timeout_secs"`
	} `yaml:"worker"`
	Retention struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		MaxDays int    `yaml:"max_days"`
	} `yaml:"retention"`
}

func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.DB.Path = "marketpulse.db"
	cfg.Worker.QueueSize = 256
	cfg.Worker.IdleTimeoutSecs = 1
	cfg.Retention.Cron = "0 3 * * *"
	cfg.Retention.MaxDays = 7
	return cfg
}

// Load reads a yaml config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
