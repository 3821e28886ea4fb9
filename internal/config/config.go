package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source kinds.
const (
	SourceGoogleDocs = "gdocs"
	SourceSnapshot   = "snapshot"
	SourceDOCX       = "docx"
)

type Config struct {
	Port string `koanf:"port"`

	// Document source
	Source                   string `koanf:"source"`
	SourcePath               string `koanf:"source_path"`
	GoogleDocsID             string `koanf:"google_docs_id"`
	GoogleServiceAccountJSON string `koanf:"google_service_account_json"`

	// Publishing
	DraftPrefixes    []string `koanf:"draft_prefixes"`
	RequirePublished bool     `koanf:"require_published"`

	// Site metadata
	SiteTitle       string `koanf:"site_title"`
	SiteDescription string `koanf:"site_description"`
	GAMeasurementID string `koanf:"ga_measurement_id"`
	BaseURL         string `koanf:"base_url"`

	CORSOrigins []string `koanf:"cors_origins"`

	// Caching and refresh
	RedisURL        string        `koanf:"redis_url"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`

	// RefreshRateLimit caps forced refreshes per client IP per minute; 0
	// turns the limit off.
	RefreshRateLimit int `koanf:"refresh_rate_limit"`
}

func defaults() map[string]any {
	return map[string]any{
		"port":               "3000",
		"source":             SourceGoogleDocs,
		"draft_prefixes":     []string{"[draft]", "draft:", "_"},
		"require_published":  false,
		"cors_origins":       []string{"*"},
		"cache_ttl":          24 * time.Hour,
		"refresh_interval":   time.Duration(0),
		"fetch_timeout":      30 * time.Second,
		"refresh_rate_limit": 6,
	}
}

// envKeys maps environment variables onto config keys. Anything else in
// the environment is ignored, as are empty values.
var envKeys = map[string]string{
	"PORT":                        "port",
	"SOURCE":                      "source",
	"SOURCE_PATH":                 "source_path",
	"GOOGLE_DOCS_ID":              "google_docs_id",
	"GOOGLE_SERVICE_ACCOUNT_JSON": "google_service_account_json",
	"DRAFT_PREFIXES":              "draft_prefixes",
	"REQUIRE_PUBLISHED":           "require_published",
	"SITE_TITLE":                  "site_title",
	"SITE_DESCRIPTION":            "site_description",
	"GA_MEASUREMENT_ID":           "ga_measurement_id",
	"BASE_URL":                    "base_url",
	"CORS_ORIGINS":                "cors_origins",
	"REDIS_URL":                   "redis_url",
	"CACHE_TTL":                   "cache_ttl",
	"REFRESH_INTERVAL":            "refresh_interval",
	"FETCH_TIMEOUT":               "fetch_timeout",
	"REFRESH_RATE_LIMIT":          "refresh_rate_limit",
}

var listKeys = map[string]bool{"draft_prefixes": true, "cors_origins": true}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return Config{}, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("loading env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envValue(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || value == "" {
		return "", nil
	}
	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

// Error is a configuration problem that prevents startup.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Key, e.Reason)
}

// Validate reports every configuration problem joined into one error.
func (c Config) Validate() error {
	var errs []error
	fail := func(key, reason string) {
		errs = append(errs, &Error{Key: key, Reason: reason})
	}

	if c.Port == "" {
		fail("port", "is required")
	}

	switch c.Source {
	case SourceGoogleDocs:
		if c.GoogleDocsID == "" {
			fail("GOOGLE_DOCS_ID", "is required")
		}
		if c.GoogleServiceAccountJSON == "" {
			fail("GOOGLE_SERVICE_ACCOUNT_JSON", "is required")
		} else if !json.Valid([]byte(c.GoogleServiceAccountJSON)) {
			fail("GOOGLE_SERVICE_ACCOUNT_JSON", "is not valid JSON")
		}
	case SourceSnapshot, SourceDOCX:
		if c.SourcePath == "" {
			fail("source_path", "is required for source "+c.Source)
		}
	default:
		fail("source", fmt.Sprintf("%q must be one of gdocs, snapshot, docx", c.Source))
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail("BASE_URL", "must be an absolute http(s) URL")
		}
	}

	if c.CacheTTL < 0 {
		fail("cache_ttl", "must be non-negative")
	}
	if c.RefreshInterval < 0 {
		fail("refresh_interval", "must be non-negative")
	}
	if c.FetchTimeout < 0 {
		fail("fetch_timeout", "must be non-negative")
	}
	if c.RefreshRateLimit < 0 {
		fail("refresh_rate_limit", "must be non-negative")
	}

	return errors.Join(errs...)
}
