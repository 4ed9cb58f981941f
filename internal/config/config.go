package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type Config struct {
	AppName     string          `yaml:"app_name"`
	Environment string          `yaml:"environment"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Remote      RemoteConfig    `yaml:"remote"`
	Recording   RecordingConfig `yaml:"recording"`
	Filter      FilterConfig    `yaml:"filter"`
	Export      ExportConfig    `yaml:"export"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type RemoteConfig struct {
	BaseURL          string `yaml:"base_url"`
	ProbeTimeoutMS   int    `yaml:"probe_timeout_ms"`
	UploadTimeoutMS  int    `yaml:"upload_timeout_ms"`
	ProcessTimeoutMS int    `yaml:"process_timeout_ms"`
}

type RecordingConfig struct {
	Mode            string `yaml:"mode"` // mock, exec
	Command         string `yaml:"command"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	DefaultDuration int    `yaml:"default_duration_s"`
	MaxDuration     int    `yaml:"max_duration_s"`
}

type FilterConfig struct {
	DefaultMethod string   `yaml:"default_method"`
	SeedWords     []string `yaml:"seed_words"`
	MaskingToken  string   `yaml:"masking_token"`
}

type ExportConfig struct {
	Directory string `yaml:"directory"`
}

func Default() Config {
	return Config{
		AppName:     "voxsift",
		Environment: "development",
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Remote: RemoteConfig{
			BaseURL:          "http://localhost:5000",
			ProbeTimeoutMS:   1500,
			UploadTimeoutMS:  30000,
			ProcessTimeoutMS: 120000,
		},
		Recording: RecordingConfig{
			Mode:            "mock",
			SampleRate:      16000,
			Channels:        1,
			DefaultDuration: 30,
			MaxDuration:     300,
		},
		Filter: FilterConfig{
			DefaultMethod: "DFA",
			SeedWords:     []string{"小狼", "开心", "快乐"},
			MaskingToken:  "***",
		},
		Export: ExportConfig{
			Directory: "./results",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.AppName, "VOXSIFT_APP_NAME")
	overrideString(&cfg.Environment, "VOXSIFT_ENVIRONMENT")
	overrideString(&cfg.Telemetry.LogLevel, "VOXSIFT_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOXSIFT_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOXSIFT_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VOXSIFT_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "VOXSIFT_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "VOXSIFT_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOXSIFT_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOXSIFT_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VOXSIFT_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VOXSIFT_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VOXSIFT_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VOXSIFT_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOXSIFT_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Remote.BaseURL, "VOXSIFT_REMOTE_BASE_URL")
	overrideInt(&cfg.Remote.ProbeTimeoutMS, "VOXSIFT_REMOTE_PROBE_TIMEOUT_MS")
	overrideInt(&cfg.Remote.UploadTimeoutMS, "VOXSIFT_REMOTE_UPLOAD_TIMEOUT_MS")
	overrideInt(&cfg.Remote.ProcessTimeoutMS, "VOXSIFT_REMOTE_PROCESS_TIMEOUT_MS")
	overrideString(&cfg.Recording.Mode, "VOXSIFT_RECORDING_MODE")
	overrideString(&cfg.Recording.Command, "VOXSIFT_RECORDING_COMMAND")
	overrideInt(&cfg.Recording.SampleRate, "VOXSIFT_RECORDING_SAMPLE_RATE")
	overrideInt(&cfg.Recording.Channels, "VOXSIFT_RECORDING_CHANNELS")
	overrideInt(&cfg.Recording.DefaultDuration, "VOXSIFT_RECORDING_DEFAULT_DURATION_S")
	overrideInt(&cfg.Recording.MaxDuration, "VOXSIFT_RECORDING_MAX_DURATION_S")
	overrideString(&cfg.Filter.DefaultMethod, "VOXSIFT_FILTER_DEFAULT_METHOD")
	overrideStringSlice(&cfg.Filter.SeedWords, "VOXSIFT_FILTER_SEED_WORDS")
	overrideString(&cfg.Filter.MaskingToken, "VOXSIFT_FILTER_MASKING_TOKEN")
	overrideString(&cfg.Export.Directory, "VOXSIFT_EXPORT_DIRECTORY")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.AppName == "" {
		return errors.New("app_name must not be empty")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Remote.BaseURL == "" {
		return errors.New("remote.base_url must not be empty")
	}
	if cfg.Remote.ProbeTimeoutMS <= 0 {
		return errors.New("remote.probe_timeout_ms must be positive")
	}
	if cfg.Remote.UploadTimeoutMS <= 0 {
		return errors.New("remote.upload_timeout_ms must be positive")
	}
	if cfg.Remote.ProcessTimeoutMS <= 0 {
		return errors.New("remote.process_timeout_ms must be positive")
	}
	switch cfg.Recording.Mode {
	case "mock", "exec":
	default:
		return errors.New("recording.mode must be one of mock|exec")
	}
	if cfg.Recording.Mode == "exec" && cfg.Recording.Command == "" {
		return errors.New("recording.command must be set when mode=exec")
	}
	if cfg.Recording.SampleRate <= 0 {
		return errors.New("recording.sample_rate must be positive")
	}
	if cfg.Recording.Channels <= 0 {
		return errors.New("recording.channels must be positive")
	}
	if cfg.Recording.DefaultDuration <= 0 {
		return errors.New("recording.default_duration_s must be positive")
	}
	if cfg.Recording.MaxDuration < cfg.Recording.DefaultDuration {
		return errors.New("recording.max_duration_s must be >= default duration")
	}
	if cfg.Filter.DefaultMethod == "" {
		return errors.New("filter.default_method must not be empty")
	}
	if cfg.Filter.MaskingToken == "" {
		return errors.New("filter.masking_token must not be empty")
	}
	if cfg.Export.Directory == "" {
		return errors.New("export.directory must not be empty")
	}
	return nil
}
