package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"exoclass/internal/common"
)

type Settings struct {
	Port            int
	ModelPath       string
	DataPath        string
	LogLevel        string
	LogFormat       string
	GinMode         string
	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBatchSize    int
	BatchParallel   int
}

type ConfigFile struct {
	Server struct {
		Port            int    `yaml:"port"`
		GinMode         string `yaml:"ginMode"`
		RequestTimeout  string `yaml:"requestTimeout"`
		ReadTimeout     string `yaml:"readTimeout"`
		WriteTimeout    string `yaml:"writeTimeout"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Batch struct {
		MaxSize  int `yaml:"maxSize"`
		Parallel int `yaml:"parallel"`
	} `yaml:"batch"`
}

// Load reads settings from the YAML file named by CONFIG_FILE with
// environment overrides, or from the environment alone. A .env file (or the
// one named by ENV_FILE) is loaded first; it never overrides variables that
// are already set.
func Load() (Settings, error) {
	if err := loadEnvFile(); err != nil {
		return Settings{}, err
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadEnvFile() error {
	if path := os.Getenv(common.EnvEnvFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		Port:            getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, common.DefaultModelPath)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.Storage.DataPath),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		GinMode:         getEnvOrDefault(common.EnvGinMode, orDefault(config.Server.GinMode, common.DefaultGinMode)),
		RequestTimeout:  getDurationOrDefault(common.EnvRequestTimeout, parseDuration(config.Server.RequestTimeout, common.DefaultRequestTimeoutS*time.Second)),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, parseDuration(config.Server.ReadTimeout, common.DefaultReadTimeoutS*time.Second)),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, parseDuration(config.Server.WriteTimeout, common.DefaultWriteTimeoutS*time.Second)),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, parseDuration(config.Server.ShutdownTimeout, common.DefaultShutdownTimeoutS*time.Second)),
		MaxBatchSize:    getIntFromEnvOrConfig(common.EnvMaxBatchSize, config.Batch.MaxSize, common.DefaultMaxBatchSize),
		BatchParallel:   getIntFromEnvOrConfig(common.EnvBatchParallel, config.Batch.Parallel, common.DefaultBatchParallel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Port:            getIntOrDefault(common.EnvPort, common.DefaultPort),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DataPath:        os.Getenv(common.EnvDataPath), // optional
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		GinMode:         getEnvOrDefault(common.EnvGinMode, common.DefaultGinMode),
		RequestTimeout:  getDurationOrDefault(common.EnvRequestTimeout, common.DefaultRequestTimeoutS*time.Second),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, common.DefaultReadTimeoutS*time.Second),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, common.DefaultWriteTimeoutS*time.Second),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, common.DefaultShutdownTimeoutS*time.Second),
		MaxBatchSize:    getIntOrDefault(common.EnvMaxBatchSize, common.DefaultMaxBatchSize),
		BatchParallel:   getIntOrDefault(common.EnvBatchParallel, common.DefaultBatchParallel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Default returns the built-in settings without reading the environment.
func Default() Settings {
	return Settings{
		Port:            common.DefaultPort,
		ModelPath:       common.DefaultModelPath,
		LogLevel:        common.DefaultLogLevel,
		LogFormat:       common.DefaultLogFormat,
		GinMode:         common.DefaultGinMode,
		RequestTimeout:  common.DefaultRequestTimeoutS * time.Second,
		ReadTimeout:     common.DefaultReadTimeoutS * time.Second,
		WriteTimeout:    common.DefaultWriteTimeoutS * time.Second,
		ShutdownTimeout: common.DefaultShutdownTimeoutS * time.Second,
		MaxBatchSize:    common.DefaultMaxBatchSize,
		BatchParallel:   common.DefaultBatchParallel,
	}
}

// Addr is the listen address for the HTTP server.
func (s Settings) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func parseDuration(v string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	if strings.TrimSpace(settings.ModelPath) == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil || settings.LogLevel == "" {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}
	switch settings.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin mode must be debug, release or test, got %q", settings.GinMode)
	}

	// Validate time durations
	if settings.RequestTimeout < 100*time.Millisecond || settings.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("request timeout must be between 100ms and 5m, got %v", settings.RequestTimeout)
	}
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 10*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 10m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 10*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 10m, got %v", settings.WriteTimeout)
	}
	if settings.WriteTimeout < settings.RequestTimeout {
		return fmt.Errorf("write timeout %v must not be shorter than request timeout %v", settings.WriteTimeout, settings.RequestTimeout)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 5m, got %v", settings.ShutdownTimeout)
	}

	// Validate batch limits
	if settings.MaxBatchSize <= 0 || settings.MaxBatchSize > common.MaxBatchSizeCap {
		return fmt.Errorf("max batch size must be between 1 and %d, got %d", common.MaxBatchSizeCap, settings.MaxBatchSize)
	}
	if settings.BatchParallel <= 0 || settings.BatchParallel > common.MaxBatchParallel {
		return fmt.Errorf("batch parallelism must be between 1 and %d, got %d", common.MaxBatchParallel, settings.BatchParallel)
	}

	return nil
}
