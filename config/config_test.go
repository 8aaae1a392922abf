package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugobastidas/pdf-loan-splitter/classify"
)

func TestDefaults(t *testing.T) {
	c := Default()

	if c.BlankThreshold != 0.98 {
		t.Errorf("BlankThreshold = %v, want 0.98", c.BlankThreshold)
	}
	if c.DPI != 300 {
		t.Errorf("DPI = %d, want 300", c.DPI)
	}
	if c.OCRLanguage != "spa" {
		t.Errorf("OCRLanguage = %q, want spa", c.OCRLanguage)
	}
	if c.MaxUploadSize != 100*1024*1024 {
		t.Errorf("MaxUploadSize = %d", c.MaxUploadSize)
	}
	if c.JobTimeout != time.Hour {
		t.Errorf("JobTimeout = %v", c.JobTimeout)
	}
	if len(c.Rules) == 0 {
		t.Error("expected default classification rules")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.BlankThreshold != 0.98 {
		t.Fatalf("BlankThreshold = %v", c.BlankThreshold)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	content := `
storage_root: /var/lib/splitter
blank_threshold: 0.95
dpi: 150
ocr_language: eng
workers: 4
rules:
  - type: certificate
    patterns: ["CERT"]
    keywords: ["CERTIFICA"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.StorageRoot != "/var/lib/splitter" {
		t.Errorf("StorageRoot = %q", c.StorageRoot)
	}
	if c.BlankThreshold != 0.95 {
		t.Errorf("BlankThreshold = %v", c.BlankThreshold)
	}
	if c.DPI != 150 {
		t.Errorf("DPI = %d", c.DPI)
	}
	if c.OCRLanguage != "eng" {
		t.Errorf("OCRLanguage = %q", c.OCRLanguage)
	}
	if c.Workers != 4 {
		t.Errorf("Workers = %d", c.Workers)
	}
	if len(c.Rules) != 1 || c.Rules[0].Type != classify.TypeCertificate {
		t.Errorf("Rules = %+v", c.Rules)
	}
	// Unset fields still get defaults.
	if c.HTTPAddr == "" || c.PollInterval == 0 {
		t.Error("defaults not applied to unset fields")
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("{not yaml: ["), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDirs(t *testing.T) {
	c := Default()
	c.StorageRoot = "/data"

	if got := c.InputDir(); got != filepath.Join("/data", "input") {
		t.Errorf("InputDir = %q", got)
	}
	if got := c.OutputDir("job-1"); got != filepath.Join("/data", "output", "job-1") {
		t.Errorf("OutputDir = %q", got)
	}
}
