package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// App holds runtime configuration derived from env vars or a .env file.
type App struct {
	Environment string
	LogLevel    string
	APIPort     string
	CORSOrigins []string

	// DatabaseURL is the MySQL DSN of the destination (derived tables) store.
	DatabaseURL string
	// SourceDatabaseURL is the Postgres URL of the source store.
	SourceDatabaseURL string

	KafkaBrokers []string
	KafkaTopic   string

	AggregationSchedule string
	// AggregationTimezone is the IANA zone the schedule is evaluated in.
	AggregationTimezone string
	MaxAttempts         int
	RetryDelay          time.Duration
	// StorageTimeout bounds a runner's storage phase. Zero means unlimited.
	StorageTimeout time.Duration
	StrictDeadlock bool
	RunOnStartup   bool

	RunnerManifestPath string
	IPNIURL            string
}

const (
	DefaultSchedule    = "*/5 * * * *"
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 90 * time.Second
)

// Load reads an optional .env file from the working directory and then
// resolves the configuration from the environment.
func Load() App {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv loads the application configuration from environment variables.
func FromEnv() App {
	return App{
		Environment:         getEnv("ENVIRONMENT", "production"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		APIPort:             getEnv("API_PORT", "8080"),
		CORSOrigins:         getCORSOrigins(),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		SourceDatabaseURL:   os.Getenv("SOURCE_DATABASE_URL"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "aggregation-cycles"),
		AggregationSchedule: getEnv("AGGREGATION_SCHEDULE", DefaultSchedule),
		AggregationTimezone: getEnv("AGGREGATION_TIMEZONE", "UTC"),
		MaxAttempts:         getInt("AGGREGATION_MAX_ATTEMPTS", DefaultMaxAttempts),
		RetryDelay:          getDuration("AGGREGATION_RETRY_DELAY", DefaultRetryDelay),
		StorageTimeout:      getDuration("AGGREGATION_STORAGE_TIMEOUT", 0),
		StrictDeadlock:      getBool("AGGREGATION_STRICT_DEADLOCK", false),
		RunOnStartup:        getBool("AGGREGATION_RUN_ON_STARTUP", false),
		RunnerManifestPath:  os.Getenv("RUNNER_MANIFEST_PATH"),
		IPNIURL:             os.Getenv("IPNI_URL"),
	}
}

// ScheduleParser accepts five-field and six-field (leading seconds) cron
// expressions plus descriptors such as "@hourly". The trigger parses with it too.
var ScheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports configuration values the service cannot start with.
func (a App) Validate() error {
	var errs []error
	if _, err := ScheduleParser.Parse(a.AggregationSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid AGGREGATION_SCHEDULE %q: %w", a.AggregationSchedule, err))
	}
	if _, err := time.LoadLocation(a.AggregationTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid AGGREGATION_TIMEZONE %q: %w", a.AggregationTimezone, err))
	}
	if a.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("AGGREGATION_MAX_ATTEMPTS must be at least 1, got %d", a.MaxAttempts))
	}
	if a.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("AGGREGATION_RETRY_DELAY must not be negative, got %s", a.RetryDelay))
	}
	if a.StorageTimeout < 0 {
		errs = append(errs, fmt.Errorf("AGGREGATION_STORAGE_TIMEOUT must not be negative, got %s", a.StorageTimeout))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of key, or fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getCORSOrigins parses CORS_ORIGINS. An unset variable allows every origin.
func getCORSOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
