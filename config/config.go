package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/models"
)

const (
	defaultProfilePath = "./profile.yaml"
	defaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Config holds all application configuration.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	StoreBackend  string
	DryRun        bool
	CSVOutputPath string

	SearchBaseURL string
	UserAgent     string
	HTTPTimeout   time.Duration

	SMTP SMTPConfig

	DashboardAddr string

	ProfilePath string
	Search      models.FilterSpec
	Exclude     models.ExclusionRules
}

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Server    string
	Port      int
	Username  string
	Password  string
	Recipient string
	Timeout   time.Duration
}

// Profile is the on-disk search profile.
type Profile struct {
	Search  models.FilterSpec     `yaml:"search"`
	Exclude models.ExclusionRules `yaml:"exclude"`
}

// DefaultProfile returns the built-in search profile.
func DefaultProfile() Profile {
	return Profile{
		Search: models.FilterSpec{
			MinPrice:  2000,
			MaxPrice:  4500,
			MinBeds:   1,
			MaxBeds:   2,
			Baths:     1,
			Areas:     []string{},
			Amenities: []string{},
		},
		Exclude: models.ExclusionRules{
			"is_featured": {"true"},
		},
	}
}

// Load reads the .env file, the YAML search profile and the environment,
// in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "monitor"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "monitor"),
		PostgresDB:       getEnv("POSTGRES_DB", "streeteasy"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
		DryRun:        getEnvBool("DRY_RUN", false),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),

		SearchBaseURL: strings.TrimRight(getEnv("SEARCH_BASE_URL", "https://streeteasy.com"), "/"),
		UserAgent:     getEnv("USER_AGENT", defaultUserAgent),
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		SMTP: SMTPConfig{
			Server:    getEnv("SMTP_SERVER", "smtp.gmail.com"),
			Port:      getEnvInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			Recipient: getEnv("EMAIL_RECIPIENT", ""),
			Timeout:   time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 30)) * time.Second,
		},

		DashboardAddr: getEnv("DASHBOARD_ADDR", ":8080"),
		ProfilePath:   getEnv("PROFILE_PATH", defaultProfilePath),
	}

	profile, err := LoadProfile(cfg.ProfilePath, cfg.ProfilePath != defaultProfilePath)
	if err != nil {
		return nil, err
	}
	if err := applySearchEnv(&profile.Search); err != nil {
		return nil, err
	}
	if err := profile.Search.Validate(); err != nil {
		return nil, err
	}

	cfg.Search = profile.Search
	cfg.Exclude = profile.Exclude
	return cfg, nil
}

// LoadProfile reads a YAML profile from path on top of DefaultProfile.
// A missing file yields the defaults unless required is set.
func LoadProfile(path string, required bool) (Profile, error) {
	profile := DefaultProfile()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return profile, nil
	}
	if err != nil {
		return profile, apperrors.Config(fmt.Sprintf("read profile %q", path), err)
	}

	var onDisk struct {
		Search  *models.FilterSpec    `yaml:"search"`
		Exclude models.ExclusionRules `yaml:"exclude"`
	}
	onDisk.Search = &profile.Search
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return profile, apperrors.Config(fmt.Sprintf("parse profile %q", path), err)
	}
	if onDisk.Exclude != nil {
		profile.Exclude = cleanRules(onDisk.Exclude)
	}
	return profile, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func applySearchEnv(spec *models.FilterSpec) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"MIN_PRICE", &spec.MinPrice},
		{"MAX_PRICE", &spec.MaxPrice},
		{"MIN_BEDS", &spec.MinBeds},
		{"MAX_BEDS", &spec.MaxBeds},
		{"BATHS", &spec.Baths},
	}
	for _, f := range ints {
		val := strings.TrimSpace(os.Getenv(f.key))
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return apperrors.Config(fmt.Sprintf("%s must be an integer, got %q", f.key, val), err)
		}
		*f.dst = n
	}

	if val := os.Getenv("AREAS"); strings.TrimSpace(val) != "" {
		spec.Areas = parseList(val)
	}
	if val := os.Getenv("AMENITIES"); strings.TrimSpace(val) != "" {
		spec.Amenities = parseList(val)
	}
	if val := strings.TrimSpace(os.Getenv("NO_FEE")); val != "" {
		spec.NoFee = isTruthy(val)
	}
	return nil
}

// parseList accepts a JSON array or a comma-separated list.
func parseList(value string) []string {
	v := strings.TrimSpace(value)
	if v == "" {
		return []string{}
	}
	if strings.HasPrefix(v, "[") {
		var items []string
		if err := json.Unmarshal([]byte(v), &items); err == nil {
			return items
		}
	}

	items := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// cleanRules drops blank substrings, which would otherwise match every value.
func cleanRules(rules models.ExclusionRules) models.ExclusionRules {
	out := make(models.ExclusionRules, len(rules))
	for field, subs := range rules {
		kept := make([]string, 0, len(subs))
		for _, s := range subs {
			if s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out[field] = kept
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		return isTruthy(val)
	}
	return fallback
}
