package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQC(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateQC() error {
	switch c.QC.FixMode {
	case "none", "safe-only", "llm-rewrite-with-approval":
	default:
		return fmt.Errorf("qc.fix_mode must be none, safe-only, or llm-rewrite-with-approval (got %q)", c.QC.FixMode)
	}
	for _, path := range c.QC.ProfilePaths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("qc.profile_paths: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("qc.profile_paths: %s is a directory", path)
		}
	}
	return nil
}

// validateLLM only checks consistency. The API key is checked at the
// point of use so report-only runs work without one.
func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.ProposalTTLMinutes <= 0 {
		return errors.New("llm.proposal_ttl_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
