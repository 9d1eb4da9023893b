package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/hay-kot/criterio"
)

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("api.base_url", c.API.BaseURL, validBaseURL),
		criterio.Run("api.timeout", c.API.Timeout, nonNegativeDuration),
		criterio.Run("sync.autosave_interval", c.Sync.AutosaveInterval, nonNegativeDuration),
	)
}

// ValidateDeep runs Validate plus I/O checks that need filesystem access.
// The configPath argument specifies the config file location to validate
// (empty string skips the config file check).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		c.validateConnection(),
	)
}

// validateConnection checks the fields needed before any request can be made.
func (c *Config) validateConnection() error {
	var errs criterio.FieldErrorsBuilder

	if c.API.BaseURL == "" {
		errs = errs.Append("api.base_url", fmt.Errorf("required (or set MARGIN_API_URL)"))
	}
	if c.API.Token == "" {
		errs = errs.Append("api.token", fmt.Errorf("required (or set MARGIN_API_TOKEN)"))
	}
	if c.Document == "" {
		errs = errs.Append("document", fmt.Errorf("required (set in config or pass --document)"))
	}

	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func validBaseURL(raw string) error {
	if raw == "" {
		return nil // connection fields are enforced by ValidateDeep
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func nonNegativeDuration(d Duration) error {
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
