package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EvidenceBackendFile = "file"
	EvidenceBackendCOS  = "cos"

	AuditBackendSQLite   = "sqlite"
	AuditBackendPostgres = "postgres"
)

type Config struct {
	Port               int     `yaml:"port"`
	Password           string  `yaml:"password"`
	ModelPath          string  `yaml:"model_path"`
	ConfigPath         string  `yaml:"config_path"`
	DetectionThreshold float64 `yaml:"detection_threshold"` // minimalna pewność detekcji osoby
	UploadDirectory    string  `yaml:"upload_dir"`
	OutputDirectory    string  `yaml:"output_dir"`
	EvidenceDirectory  string  `yaml:"evidence_dir"`
	DatabasePath       string  `yaml:"db_path"`
	LogDirectory       string  `yaml:"log_dir"`

	DwellThreshold  time.Duration `yaml:"dwell_threshold"`
	ViolationPolicy string        `yaml:"violation_policy"` // refire | once
	ReentryGap      time.Duration `yaml:"reentry_gap"`      // 0 = powrót traktowany jako kontynuacja

	SessionWorkers int   `yaml:"session_workers"`
	SessionQueue   int   `yaml:"session_queue"`
	MaxUploadMB    int64 `yaml:"max_upload_mb"`

	EvidenceBackend string    `yaml:"evidence_backend"`
	AuditBackend    string    `yaml:"audit_backend"`
	PostgresDSN     string    `yaml:"postgres_dsn"`
	COS             COSConfig `yaml:"cos"`
}

// COSConfig holds Tencent Cloud Object Storage settings for the evidence store.
type COSConfig struct {
	BucketURL string `yaml:"bucket_url"`
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:               8080,
		Password:           "changeme",
		ModelPath:          filepath.Join(".", "models", "frozen_inference_graph.pb"),
		ConfigPath:         filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt"),
		DetectionThreshold: 0.5,
		UploadDirectory:    filepath.Join(".", "videos"),
		OutputDirectory:    filepath.Join(".", "output"),
		EvidenceDirectory:  filepath.Join(".", "violations"),
		DatabasePath:       filepath.Join(".", "data", "dwellwatch.db"),
		LogDirectory:       filepath.Join(".", "logs"),
		DwellThreshold:     30 * time.Second,
		ViolationPolicy:    "refire",
		SessionWorkers:     2,
		SessionQueue:       16,
		MaxUploadMB:        512,
		EvidenceBackend:    EvidenceBackendFile,
		AuditBackend:       AuditBackendSQLite,
		COS: COSConfig{
			Prefix: "dwellwatch/violations",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file and the environment, in that order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile overlays a YAML file onto cfg.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.Password = getEnv("PASSWORD", c.Password)
	c.ModelPath = getEnv("MODEL_PATH", c.ModelPath)
	c.ConfigPath = getEnv("CONFIG_PATH", c.ConfigPath)
	c.DetectionThreshold = getEnvAsFloat("DETECTION_THRESHOLD", c.DetectionThreshold)
	c.UploadDirectory = getEnv("UPLOAD_DIR", c.UploadDirectory)
	c.OutputDirectory = getEnv("OUTPUT_DIR", c.OutputDirectory)
	c.EvidenceDirectory = getEnv("EVIDENCE_DIR", c.EvidenceDirectory)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)

	c.DwellThreshold = getEnvAsSeconds("DWELL_THRESHOLD", c.DwellThreshold)
	c.ViolationPolicy = getEnv("VIOLATION_POLICY", c.ViolationPolicy)
	c.ReentryGap = getEnvAsSeconds("REENTRY_GAP", c.ReentryGap)

	c.SessionWorkers = getEnvAsInt("SESSION_WORKERS", c.SessionWorkers)
	c.SessionQueue = getEnvAsInt("SESSION_QUEUE", c.SessionQueue)
	c.MaxUploadMB = getEnvAsInt64("MAX_UPLOAD_MB", c.MaxUploadMB)

	c.EvidenceBackend = getEnv("EVIDENCE_BACKEND", c.EvidenceBackend)
	c.AuditBackend = getEnv("AUDIT_BACKEND", c.AuditBackend)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)
	c.COS.BucketURL = getEnv("COS_BUCKET_URL", c.COS.BucketURL)
	c.COS.SecretID = getEnv("COS_SECRET_ID", c.COS.SecretID)
	c.COS.SecretKey = getEnv("COS_SECRET_KEY", c.COS.SecretKey)
	c.COS.Prefix = getEnv("COS_PREFIX", c.COS.Prefix)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds reads a number of seconds (fractions allowed).
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}
