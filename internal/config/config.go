// Package config loads a pipeline definition from YAML with
// environment-variable overrides and post-load validation, grounded
// on the teacher's internal/config/config.go (LoadConfig,
// applyDefaults, applyEnvironmentOverrides, ValidateConfig).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// SourceConfig describes the DirectoryExtractor (or
// MultiDirectoryExtractor, when len(Roots) > 1) feeding the pipeline.
type SourceConfig struct {
	Roots              []string `yaml:"roots"`
	FilePattern        string   `yaml:"file_pattern"`
	ExcludePatterns    []string `yaml:"exclude_patterns"`
	ExcludeDirectories []string `yaml:"exclude_directories"`
	Recursive          bool     `yaml:"recursive"`
	IncludeHidden      bool     `yaml:"include_hidden"`
	MaxFiles           int      `yaml:"max_files"`
	MaxFileSizeBytes   int64    `yaml:"max_file_size_bytes"`
}

// CSVSinkConfig configures a CSVLoader.
type CSVSinkConfig struct {
	Dir         string `yaml:"dir"`
	Prefix      string `yaml:"prefix"`
	Extension   string `yaml:"extension"`
	Separator   string `yaml:"separator"`
	BufferSize  int    `yaml:"buffer_size"`
	Compression string `yaml:"compression"`
}

// SQLSinkConfig configures a SQLLoader.
type SQLSinkConfig struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	InsertSQL     string `yaml:"insert_sql"`
	BufferSize    int    `yaml:"buffer_size"`
	MaxReconnects int    `yaml:"max_reconnects"`
}

// KafkaSinkConfig configures a KafkaLoader.
type KafkaSinkConfig struct {
	Brokers    []string `yaml:"brokers"`
	Topic      string   `yaml:"topic"`
	BufferSize int      `yaml:"buffer_size"`
}

// SinksConfig enumerates the concrete sinks the caller may wire; any
// subset may be present. When more than one is configured,
// internal/app wires them behind a LoadBalancer.
type SinksConfig struct {
	CSV   *CSVSinkConfig   `yaml:"csv"`
	SQL   *SQLSinkConfig   `yaml:"sql"`
	Kafka *KafkaSinkConfig `yaml:"kafka"`

	LoadBalancerBufferSize     int   `yaml:"load_balancer_buffer_size"`
	LoadBalancerQueueCapacity  int   `yaml:"load_balancer_queue_capacity"`
	LoadBalancerEnqueueTimeout int64 `yaml:"load_balancer_enqueue_timeout_ms"`
}

// PipelineTuning mirrors spec.md §6's constructor parameters.
type PipelineTuning struct {
	MaxTransformationPipelines int     `yaml:"max_transformation_pipelines"`
	TransInQueueMaxSize        int     `yaml:"trans_in_queue_max_size"`
	QueueBlockTimeoutSec       float64 `yaml:"queue_block_timeout_sec"`
	QueueNoBlockTimeoutSec     float64 `yaml:"queue_no_block_timeout_sec"`
}

// Config is the root pipeline definition document.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Sinks    SinksConfig    `yaml:"sinks"`
	Pipeline PipelineTuning `yaml:"pipeline"`

	// loadedFromFile records whether a YAML document was actually
	// read, distinguishing "not configured" from "configured empty".
	loadedFromFile bool
}

// LoadConfig reads configFile (if non-empty; a missing or unreadable
// file is an error), applies defaults, then applies
// CORPUSETL_*-prefixed environment overrides, and finally validates
// the result.
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.loadedFromFile = true
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Source.FilePattern == "" {
		cfg.Source.FilePattern = "*.txt"
	}
	if cfg.Pipeline.MaxTransformationPipelines <= 0 {
		cfg.Pipeline.MaxTransformationPipelines = 4
	}
	if cfg.Pipeline.TransInQueueMaxSize <= 0 {
		cfg.Pipeline.TransInQueueMaxSize = 1000
	}
	if cfg.Pipeline.QueueBlockTimeoutSec <= 0 {
		cfg.Pipeline.QueueBlockTimeoutSec = 0.1
	}
	if cfg.Pipeline.QueueNoBlockTimeoutSec <= 0 {
		cfg.Pipeline.QueueNoBlockTimeoutSec = 0.01
	}

	if cfg.Sinks.CSV != nil {
		if cfg.Sinks.CSV.Extension == "" {
			cfg.Sinks.CSV.Extension = "csv"
		}
		if cfg.Sinks.CSV.Separator == "" {
			cfg.Sinks.CSV.Separator = ";"
		}
		if cfg.Sinks.CSV.BufferSize <= 0 {
			cfg.Sinks.CSV.BufferSize = 500
		}
	}
	if cfg.Sinks.SQL != nil {
		if cfg.Sinks.SQL.BufferSize <= 0 {
			cfg.Sinks.SQL.BufferSize = 500
		}
		if cfg.Sinks.SQL.MaxReconnects <= 0 {
			cfg.Sinks.SQL.MaxReconnects = 5
		}
	}
	if cfg.Sinks.Kafka != nil && cfg.Sinks.Kafka.BufferSize <= 0 {
		cfg.Sinks.Kafka.BufferSize = 200
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if roots := getEnvStringSlice("CORPUSETL_SOURCE_ROOTS", nil); roots != nil {
		cfg.Source.Roots = roots
	}
	cfg.Source.FilePattern = getEnvString("CORPUSETL_SOURCE_FILE_PATTERN", cfg.Source.FilePattern)
	cfg.Source.Recursive = getEnvBool("CORPUSETL_SOURCE_RECURSIVE", cfg.Source.Recursive)

	cfg.Pipeline.MaxTransformationPipelines = getEnvInt("CORPUSETL_MAX_TRANSFORMATION_PIPELINES", cfg.Pipeline.MaxTransformationPipelines)
	cfg.Pipeline.TransInQueueMaxSize = getEnvInt("CORPUSETL_TRANS_IN_QUEUE_MAX_SIZE", cfg.Pipeline.TransInQueueMaxSize)

	if cfg.Sinks.CSV != nil {
		cfg.Sinks.CSV.Dir = getEnvString("CORPUSETL_CSV_DIR", cfg.Sinks.CSV.Dir)
	}
	if cfg.Sinks.SQL != nil {
		cfg.Sinks.SQL.DSN = getEnvString("CORPUSETL_SQL_DSN", cfg.Sinks.SQL.DSN)
	}
	if cfg.Sinks.Kafka != nil {
		if brokers := getEnvStringSlice("CORPUSETL_KAFKA_BROKERS", nil); brokers != nil {
			cfg.Sinks.Kafka.Brokers = brokers
		}
	}
}

// QueueBlockTimeout converts the tuning's float-seconds field to a
// time.Duration for pipeline.Config.
func (c PipelineTuning) QueueBlockTimeout() time.Duration {
	return time.Duration(c.QueueBlockTimeoutSec * float64(time.Second))
}

// QueueNoBlockTimeout converts the tuning's float-seconds field to a
// time.Duration for pipeline.Config.
func (c PipelineTuning) QueueNoBlockTimeout() time.Duration {
	return time.Duration(c.QueueNoBlockTimeoutSec * float64(time.Second))
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	out := []string{}
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
