package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// LookupFunc resolves an environment variable name to its value.
// An empty string means unset.
type LookupFunc func(string) string

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an explicit variable source. Every malformed
// variable is reported, not only the first one.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := decodeSection(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envField is one tagged leaf of the Config tree.
type envField struct {
	name     string
	alt      string
	fallback string
	required bool
	secret   bool
}

func fieldTags(f reflect.StructField) (envField, bool) {
	name := f.Tag.Get("env")
	if name == "" {
		return envField{}, false
	}
	return envField{
		name:     name,
		alt:      f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
		secret:   f.Tag.Get("secret") == "true",
	}, true
}

// resolve returns the raw value for the field: primary name, then the
// alternate, then the default.
func (e envField) resolve(lookup LookupFunc) (string, error) {
	for _, key := range []string{e.name, e.alt} {
		if key == "" {
			continue
		}
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v, nil
		}
	}
	if e.required {
		return "", fmt.Errorf("required environment variable %s is not set", e.name)
	}
	return e.fallback, nil
}

// decodeSection walks a config struct, descending into nested sections.
func decodeSection(v reflect.Value, lookup LookupFunc) error {
	var errs error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			errs = multierr.Append(errs, decodeSection(fv, lookup))
			continue
		}

		tags, ok := fieldTags(sf)
		if !ok {
			continue
		}
		raw, err := tags.resolve(lookup)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if raw == "" {
			continue
		}
		if err := decodeValue(fv, raw); err != nil {
			if tags.secret {
				errs = multierr.Append(errs, fmt.Errorf("invalid value for %s: %w", tags.name, err))
			} else {
				errs = multierr.Append(errs, fmt.Errorf("invalid value for %s=%q: %w", tags.name, raw, err))
			}
		}
	}
	return errs
}

var durationType = reflect.TypeOf(time.Duration(0))

// decodeValue parses raw into the field according to its type.
func decodeValue(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.New("not a duration (e.g. 5s, 1m30s)")
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return errors.New("not an integer")
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("not a boolean")
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list element %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", fv.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// problems collects validation messages for one section.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var p problems
	c.Server.validate(&p)
	c.Storage.validate(&p)
	c.Sheets.validate(&p)
	c.Database.validate(&p)
	c.Intake.validate(&p)
	c.Rate.validate(&p)
	c.Logging.validate(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (s ServerConfig) validate(p *problems) {
	if s.Port <= 0 || s.Port > 65535 {
		p.addf("PORT (%d) must be 1-65535", s.Port)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		p.addf("SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		p.addf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if s.RequestTimeout <= 0 {
		p.addf("SERVER_REQUEST_TIMEOUT must be positive")
	}
	if s.MaxBodyBytes <= 0 {
		p.addf("SERVER_MAX_BODY_BYTES must be positive")
	}
}

func (s StorageConfig) validate(p *problems) {
	if strings.TrimSpace(s.DataDir) == "" {
		p.addf("DATA_DIR must not be empty")
	}
}

// validate only checks the mirror once a spreadsheet is named.
func (s SheetsConfig) validate(p *problems) {
	if !s.Configured() {
		return
	}
	if s.Range == "" {
		p.addf("SHEETS_RANGE is required when SPREADSHEET_ID is set")
	}
	if s.Timeout <= 0 {
		p.addf("SHEETS_TIMEOUT must be positive")
	}
}

func (d DatabaseConfig) validate(p *problems) {
	if !d.Configured() {
		return
	}
	if d.MaxConns <= 0 {
		p.addf("DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		p.addf("DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		p.addf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns)
	}
	if d.Timeout <= 0 {
		p.addf("DB_TIMEOUT must be positive")
	}
}

func (i IntakeConfig) validate(p *problems) {
	if i.MaxConcurrent <= 0 {
		p.addf("INTAKE_MAX_CONCURRENT must be positive")
	}
	if i.MaxWaitTime <= 0 {
		p.addf("INTAKE_MAX_WAIT_TIME must be positive")
	}
}

func (r RateLimitConfig) validate(p *problems) {
	if !r.Enabled {
		return
	}
	if r.RequestsPerMinute <= 0 {
		p.addf("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if r.SubmitLimit <= 0 {
		p.addf("RATE_LIMIT_SUBMIT must be positive when rate limiting is enabled")
	}
}

func (l LoggingConfig) validate(p *problems) {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.addf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		p.addf("LOG_FORMAT (%q) must be one of: text, json", l.Format)
	}
}

// String renders the configuration for a debug log line with the database
// URL masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Database.Configured() {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d, MaxBodyBytes: %d}, ", c.Server.Host, c.Server.Port, c.Server.MaxBodyBytes)
	fmt.Fprintf(&b, "Storage: {DataDir: %q, StaticDir: %q}, ", c.Storage.DataDir, c.Storage.StaticDir)
	fmt.Fprintf(&b, "Sheets: {SpreadsheetID: %q, Range: %q, Timeout: %s}, ",
		c.Sheets.SpreadsheetID, c.Sheets.Range, c.Sheets.Timeout)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		dbURL, c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Intake: {MaxConcurrent: %d, MaxWaitTime: %s}, ",
		c.Intake.MaxConcurrent, c.Intake.MaxWaitTime)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, SubmitLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.SubmitLimit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
