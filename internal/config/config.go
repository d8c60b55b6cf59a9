package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Document struct {
		TotalChars  int    `yaml:"total_chars"`
		Author      string `yaml:"author"`
		StoragePath string `yaml:"storage_path"`
	} `yaml:"document"`
	Routing struct {
		Models              []string `yaml:"models"` // most capable first
		ComplexityThreshold int      `yaml:"complexity_threshold"`
		LatencyTargetMS     int      `yaml:"latency_target_ms"`
		QualityTarget       string   `yaml:"quality_target"`
	} `yaml:"routing"`
	AI struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"` // planning model
		APIKey   string `yaml:"api_key"`
	} `yaml:"ai"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Document.TotalChars = 3000
	cfg.Document.Author = "system"
	cfg.Document.StoragePath = "drafter.db"
	cfg.Routing.Models = []string{"pro", "standard", "small"}
	cfg.Routing.ComplexityThreshold = 140
	cfg.Routing.LatencyTargetMS = 6000
	cfg.Routing.QualityTarget = "balanced"
	cfg.AI.Provider = "static"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config when present; a missing file keeps the defaults.
	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("DRAFTER_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("DRAFTER_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if path := os.Getenv("DRAFTER_STORAGE_PATH"); path != "" {
		cfg.Document.StoragePath = path
	}
	if raw := os.Getenv("DRAFTER_TOTAL_CHARS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Document.TotalChars = n
		}
	}

	return cfg, nil
}
