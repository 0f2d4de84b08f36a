package config

import (
	"fmt"
	"strings"
)

// validationError accumulates every problem found so a single
// LoadConfig call reports them all, mirroring the teacher's
// ConfigValidator.buildValidationError.
type validationError struct {
	problems []string
}

func (e *validationError) add(format string, args ...any) {
	e.problems = append(e.problems, fmt.Sprintf(format, args...))
}

func (e *validationError) err() error {
	if len(e.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(e.problems, "; "))
}

// ValidateConfig checks the fatal-configuration-error class of
// spec.md §7: an empty source, no configured sink, and internally
// inconsistent sink parameters are all rejected before a Pipeline is
// ever constructed.
func ValidateConfig(cfg *Config) error {
	ve := &validationError{}

	if len(cfg.Source.Roots) == 0 {
		ve.add("source.roots must list at least one directory")
	}

	if cfg.Sinks.CSV == nil && cfg.Sinks.SQL == nil && cfg.Sinks.Kafka == nil {
		ve.add("sinks: at least one of csv, sql, kafka must be configured")
	}

	if cfg.Sinks.CSV != nil && cfg.Sinks.CSV.Dir == "" {
		ve.add("sinks.csv.dir must not be empty")
	}
	if cfg.Sinks.SQL != nil {
		if cfg.Sinks.SQL.DSN == "" {
			ve.add("sinks.sql.dsn must not be empty")
		}
		if cfg.Sinks.SQL.InsertSQL == "" {
			ve.add("sinks.sql.insert_sql must not be empty")
		}
	}
	if cfg.Sinks.Kafka != nil {
		if len(cfg.Sinks.Kafka.Brokers) == 0 {
			ve.add("sinks.kafka.brokers must list at least one broker")
		}
		if cfg.Sinks.Kafka.Topic == "" {
			ve.add("sinks.kafka.topic must not be empty")
		}
	}

	if cfg.Pipeline.MaxTransformationPipelines < 1 {
		ve.add("pipeline.max_transformation_pipelines must be >= 1")
	}

	return ve.err()
}
