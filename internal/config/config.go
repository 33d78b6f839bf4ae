package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port          string `yaml:"port"`
		AllowedOrigin string `yaml:"allowed_origin"`
	} `yaml:"server"`
	Host struct {
		Password string `yaml:"password"`
	} `yaml:"host"`
	Game struct {
		QuestionTime  string `yaml:"question_time"`
		ResultsDelay  string `yaml:"results_delay"`
		MaxPlayers    int    `yaml:"max_players"`
		Retention     string `yaml:"retention"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"game"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
