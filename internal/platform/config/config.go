package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName               string
	HTTPPort                  string
	PostgresDSN               string
	LogLevel                  string
	WorkerPollInterval        time.Duration
	ProjectionRefreshInterval time.Duration
	MetricsEnabled            bool
	TallyIDs                  []string
	ConfigFile                string

	Workflow Workflow
}

// Workflow holds the operator-tunable workflow options. It is read from the
// YAML file named by TALLY_CONFIG_FILE.
type Workflow struct {
	MinStationNumber           int           `yaml:"min_station_number"`
	MaxStationNumber           int           `yaml:"max_station_number"`
	MaxFileUploadSize          int64         `yaml:"max_file_upload_size"`
	IdleTimeoutMinutes         int           `yaml:"idle_timeout_minutes"`
	PrintCoverInIntake         bool          `yaml:"print_cover_in_intake"`
	PrintCoverInClearance      bool          `yaml:"print_cover_in_clearance"`
	PrintCoverInQualityControl bool          `yaml:"print_cover_in_quality_control"`
	PrintCoverInAudit          bool          `yaml:"print_cover_in_audit"`
	QuarantineChecks           []CheckConfig `yaml:"quarantine_checks"`
}

// CheckConfig seeds one quarantine check. An empty list keeps the built-in
// defaults.
type CheckConfig struct {
	Name           string  `yaml:"name"`
	Method         string  `yaml:"method"`
	Description    string  `yaml:"description"`
	ToleranceValue float64 `yaml:"tolerance_value"`
	Percentage     float64 `yaml:"percentage"`
	Active         bool    `yaml:"active"`
}

func DefaultWorkflow() Workflow {
	return Workflow{
		MinStationNumber:           1,
		MaxStationNumber:           102,
		MaxFileUploadSize:          10 << 20,
		IdleTimeoutMinutes:         60,
		PrintCoverInIntake:         true,
		PrintCoverInClearance:      true,
		PrintCoverInQualityControl: true,
		PrintCoverInAudit:          true,
	}
}

// Load reads an optional .env file, the process environment and the
// optional workflow file, in that order.
func Load() (Config, error) {
	if err := loadDotEnv(envOr("TALLY_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	pollInterval, err := envDuration("WORKER_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	refreshInterval, err := envDuration("PROJECTION_REFRESH_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceName:               envOr("SERVICE_NAME", "tally"),
		HTTPPort:                  envOr("HTTP_PORT", "8080"),
		PostgresDSN:               os.Getenv("POSTGRES_DSN"),
		LogLevel:                  strings.ToLower(envOr("LOG_LEVEL", "info")),
		WorkerPollInterval:        pollInterval,
		ProjectionRefreshInterval: refreshInterval,
		MetricsEnabled:            envBool("METRICS_ENABLED", true),
		TallyIDs:                  envList("TALLY_IDS"),
		ConfigFile:                strings.TrimSpace(os.Getenv("TALLY_CONFIG_FILE")),
		Workflow:                  DefaultWorkflow(),
	}

	if cfg.ConfigFile != "" {
		workflow, err := LoadWorkflowFile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Workflow = workflow
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWorkflowFile parses a workflow YAML file over the defaults.
func LoadWorkflowFile(path string) (Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Workflow{}, fmt.Errorf("read workflow config %s: %w", path, err)
	}
	return ParseWorkflow(raw)
}

// ParseWorkflow decodes YAML over DefaultWorkflow. Unknown keys are
// rejected.
func ParseWorkflow(raw []byte) (Workflow, error) {
	workflow := DefaultWorkflow()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return workflow, nil
	}
	decoder := yaml.NewDecoder(strings.NewReader(string(raw)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&workflow); err != nil {
		return Workflow{}, fmt.Errorf("decode workflow config: %w", err)
	}
	return workflow, nil
}

func (c Config) Validate() error {
	var problems []error
	if strings.TrimSpace(c.HTTPPort) == "" {
		problems = append(problems, errors.New("http port is required"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.WorkerPollInterval <= 0 {
		problems = append(problems, errors.New("worker poll interval must be positive"))
	}
	if c.ProjectionRefreshInterval <= 0 {
		problems = append(problems, errors.New("projection refresh interval must be positive"))
	}
	if err := c.Workflow.Validate(); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

func (w Workflow) Validate() error {
	var problems []error
	if w.MinStationNumber < 1 {
		problems = append(problems, errors.New("min_station_number must be at least 1"))
	}
	if w.MinStationNumber > w.MaxStationNumber {
		problems = append(problems, fmt.Errorf("min_station_number %d exceeds max_station_number %d", w.MinStationNumber, w.MaxStationNumber))
	}
	if w.MaxFileUploadSize < 0 {
		problems = append(problems, errors.New("max_file_upload_size must not be negative"))
	}
	if w.IdleTimeoutMinutes < 0 {
		problems = append(problems, errors.New("idle_timeout_minutes must not be negative"))
	}
	names := map[string]bool{}
	methods := map[string]bool{}
	for _, check := range w.QuarantineChecks {
		name := strings.TrimSpace(check.Name)
		method := strings.TrimSpace(check.Method)
		if name == "" || method == "" {
			problems = append(problems, errors.New("quarantine check name and method are required"))
			continue
		}
		if names[name] {
			problems = append(problems, fmt.Errorf("duplicate quarantine check name %q", name))
		}
		if methods[method] {
			problems = append(problems, fmt.Errorf("duplicate quarantine check method %q", method))
		}
		if check.ToleranceValue < 0 || check.Percentage < 0 {
			problems = append(problems, fmt.Errorf("quarantine check %q has a negative tolerance", name))
		}
		names[name] = true
		methods[method] = true
	}
	return errors.Join(problems...)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func envOr(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envList(name string) []string {
	var items []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
