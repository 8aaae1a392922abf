// Package config holds the immutable service configuration.
//
// The configuration is loaded once at startup (yaml file plus defaults) and
// passed by reference into the pipeline, worker, and HTTP layers. Stages never
// consult process-wide state.
//
// Usage:
//
//	cfg, err := config.Load("pdfsplitter.yaml")
//	if err != nil { ... }
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hugobastidas/pdf-loan-splitter/classify"
)

// Config is the full service configuration. Zero values are filled in by
// defaults(), so an empty file (or no file at all) yields a working setup.
type Config struct {
	// StorageRoot is the base directory for uploaded PDFs and split output.
	// Uploads land in <root>/input, per-job output in <root>/output/<jobID>.
	StorageRoot string `yaml:"storage_root"`

	// DatabasePath is the sqlite database file.
	DatabasePath string `yaml:"database_path"`

	// HTTPAddr is the listen address of the API server.
	HTTPAddr string `yaml:"http_addr"`

	// Workers is the number of concurrent job workers. Each worker owns at
	// most one job at a time.
	Workers int `yaml:"workers"`

	// PollInterval is how often idle workers check for pending jobs.
	PollInterval time.Duration `yaml:"poll_interval"`

	// MaxUploadSize caps accepted PDF uploads, in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size"`

	// BlankThreshold is the white-pixel ratio at or above which a page is
	// considered blank. Exposed because scan quality varies between branches.
	BlankThreshold float64 `yaml:"blank_threshold"`

	// DPI used when rasterizing PDF pages for analysis.
	DPI int `yaml:"dpi"`

	// OCRLanguage is the Tesseract language code.
	OCRLanguage string `yaml:"ocr_language"`

	// AnalysisWorkers bounds concurrent page analysis within one job.
	AnalysisWorkers int `yaml:"analysis_workers"`

	// JobTimeout is advisory: the queue infrastructure enforces it, the
	// pipeline only records it.
	JobTimeout time.Duration `yaml:"job_timeout"`

	// Rules is the ordered classification table. Empty means built-in rules.
	Rules []classify.Rule `yaml:"rules"`
}

func (c *Config) defaults() {
	if c.StorageRoot == "" {
		c.StorageRoot = "storage"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join("db", "pdfsplitter.db")
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8086"
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = 100 * 1024 * 1024
	}
	if c.BlankThreshold <= 0 || c.BlankThreshold > 1 {
		c.BlankThreshold = 0.98
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = "spa"
	}
	if c.AnalysisWorkers <= 0 {
		c.AnalysisWorkers = 4
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = time.Hour
	}
	if len(c.Rules) == 0 {
		c.Rules = classify.DefaultRules()
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.defaults()
	return &c
}

// Load reads a yaml configuration file and applies defaults. A missing file
// is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	var c Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.defaults()
	return &c, nil
}

// InputDir is where uploaded source PDFs are stored.
func (c *Config) InputDir() string {
	return filepath.Join(c.StorageRoot, "input")
}

// OutputDir is the job-scoped output directory.
func (c *Config) OutputDir(jobID string) string {
	return filepath.Join(c.StorageRoot, "output", jobID)
}
