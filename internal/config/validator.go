package config

import (
	"errors"
	"fmt"
)

// Validate checks that cfg describes a runnable deployment.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be in 1..65535, got %d", cfg.Port))
	}
	if cfg.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	if cfg.DwellThreshold <= 0 {
		errs = append(errs, fmt.Errorf("dwell threshold must be positive, got %v", cfg.DwellThreshold))
	}
	if cfg.ReentryGap < 0 {
		errs = append(errs, fmt.Errorf("reentry gap must not be negative, got %v", cfg.ReentryGap))
	}
	switch cfg.ViolationPolicy {
	case "refire", "once":
	default:
		errs = append(errs, fmt.Errorf("violation policy must be refire or once, got %q", cfg.ViolationPolicy))
	}
	if cfg.DetectionThreshold < 0 || cfg.DetectionThreshold > 1 {
		errs = append(errs, fmt.Errorf("detection threshold must be in [0,1], got %v", cfg.DetectionThreshold))
	}
	if cfg.SessionWorkers <= 0 {
		errs = append(errs, fmt.Errorf("session workers must be positive, got %d", cfg.SessionWorkers))
	}
	if cfg.SessionQueue < 0 {
		errs = append(errs, fmt.Errorf("session queue must not be negative, got %d", cfg.SessionQueue))
	}

	switch cfg.EvidenceBackend {
	case EvidenceBackendFile:
		if cfg.EvidenceDirectory == "" {
			errs = append(errs, errors.New("evidence directory is required for the file backend"))
		}
	case EvidenceBackendCOS:
		if cfg.COS.BucketURL == "" {
			errs = append(errs, errors.New("COS bucket URL is required for the cos backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown evidence backend %q", cfg.EvidenceBackend))
	}

	switch cfg.AuditBackend {
	case AuditBackendSQLite:
	case AuditBackendPostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres DSN is required for the postgres audit backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown audit backend %q", cfg.AuditBackend))
	}

	// the sqlite file also indexes evidence for the file backend
	if (cfg.AuditBackend == AuditBackendSQLite || cfg.EvidenceBackend == EvidenceBackendFile) && cfg.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	return errors.Join(errs...)
}
