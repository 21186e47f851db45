// Package config resolves registry configuration: built-in defaults, then an
// optional YAML file, then environment overrides, so main stays lean.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Registry captures where the backing files live and how the process logs.
type Registry struct {
	// DataDir is prepended to every file name. Empty means the process
	// working directory, matching the legacy relative-path contract.
	DataDir string `yaml:"data_dir"`

	PatientFile     string `yaml:"patient_file"`
	DonorFile       string `yaml:"donor_file"`
	AppointmentFile string `yaml:"appointment_file"`
	TransplantFile  string `yaml:"transplant_file"`

	AuditFile    string `yaml:"audit_file"`
	AuditEnabled bool   `yaml:"audit_enabled"`

	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the stock configuration: legacy file names in the working
// directory, audit on, text logs at info.
func Default() Registry {
	return Registry{
		PatientFile:     "Paciente.txt",
		DonorFile:       "Donante.txt",
		AppointmentFile: "Cita.txt",
		TransplantFile:  "Trasplante.txt",
		AuditFile:       "Auditoria.txt",
		AuditEnabled:    true,
		LogFormat:       "text",
		LogLevel:        "info",
	}
}

// Load resolves the configuration. A non-empty path must point at a YAML
// file; a missing CLINREG_CONFIG file is an error while an unset one is not.
func Load(path string) (Registry, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("CLINREG_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Registry{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Registry{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Registry) applyEnv() {
	if v := os.Getenv("CLINREG_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("CLINREG_AUDIT"); v != "" {
		c.AuditEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("CLINREG_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("CLINREG_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// PatientPath and friends resolve the configured file names against DataDir.
func (c Registry) PatientPath() string     { return c.resolve(c.PatientFile) }
func (c Registry) DonorPath() string       { return c.resolve(c.DonorFile) }
func (c Registry) AppointmentPath() string { return c.resolve(c.AppointmentFile) }
func (c Registry) TransplantPath() string  { return c.resolve(c.TransplantFile) }
func (c Registry) AuditPath() string       { return c.resolve(c.AuditFile) }

func (c Registry) resolve(name string) string {
	if c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
