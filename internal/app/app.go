// Package app wires a concrete Pipeline from a loaded Config: a
// directory-walking Extractor, the file-to-lines/tokenizer/
// attribute-mapper transform chain of spec.md §8 scenario S1, and
// whichever sinks the configuration names. Grounded on the teacher's
// internal/app/app.go (New/Start/Stop/Run, signal-driven shutdown).
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/internal/config"
	"github.com/carlosvega/corpusetl/internal/pipeline"
	"github.com/carlosvega/corpusetl/pkg/compress"
	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/extract"
	"github.com/carlosvega/corpusetl/pkg/load"
	"github.com/carlosvega/corpusetl/pkg/record"
	"github.com/carlosvega/corpusetl/pkg/transform"
)

// App owns the configuration, logger, and the single Pipeline it
// drives end to end.
type App struct {
	cfg      *config.Config
	logger   *logrus.Logger
	pipeline *pipeline.Pipeline
}

// New loads configFile and assembles (but does not start) the
// pipeline described by it.
func New(configFile string) (*App, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	extractor := buildExtractor(cfg)
	chain := buildChain()

	loaders, err := buildLoaders(cfg)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.NewPipeline(pipeline.Config{
		MaxTransformationPipelines: cfg.Pipeline.MaxTransformationPipelines,
		TransInQueueMaxSize:        cfg.Pipeline.TransInQueueMaxSize,
		QueueBlockTimeout:          cfg.Pipeline.QueueBlockTimeout(),
		QueueNoBlockTimeout:        cfg.Pipeline.QueueNoBlockTimeout(),
	}, extractor, chain, loaders, logger)
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, logger: logger, pipeline: p}, nil
}

func buildExtractor(cfg *config.Config) extract.Extractor {
	dirs := make([]*extract.DirectoryExtractor, 0, len(cfg.Source.Roots))
	for _, root := range cfg.Source.Roots {
		dirs = append(dirs, &extract.DirectoryExtractor{
			InputDir:           root,
			OutputKey:          "path",
			FilePattern:        cfg.Source.FilePattern,
			ExcludePatterns:    cfg.Source.ExcludePatterns,
			ExcludeDirectories: cfg.Source.ExcludeDirectories,
			Recursive:          cfg.Source.Recursive,
			IncludeHidden:      cfg.Source.IncludeHidden,
			MaxFiles:           cfg.Source.MaxFiles,
			MaxFileSize:        cfg.Source.MaxFileSizeBytes,
		})
	}
	if len(dirs) == 1 {
		return dirs[0]
	}
	return &extract.MultiDirectoryExtractor{Roots: dirs}
}

// buildChain assembles the word-extraction chain of spec.md §8
// scenario S1: File-to-lines -> Tokenizer -> Attribute-mapper
// deriving the bare filename from the carried file_path.
func buildChain() []transform.Transformer {
	return []transform.Transformer{
		&transform.FileToLines{
			InputKeyPath: record.KeyPath{"path"},
			OutputConfig: transform.OutputConfig{
				CopyValuesKeyPaths: []record.CopyPair{
					{Dst: record.KeyPath{"file_path"}, Src: record.KeyPath{"path"}},
				},
			},
		},
		&transform.Tokenizer{
			InputKeyPath: record.KeyPath{"line"},
			Normalizers:  []func(string) string{strings.ToLower},
			OutputConfig: transform.OutputConfig{
				CopyValuesKeyPaths: []record.CopyPair{
					{Dst: record.KeyPath{"file_path"}, Src: record.KeyPath{"file_path"}},
				},
			},
		},
		&transform.AttributeMapper{
			Component: "corpus_word_mapper",
			Derived: []transform.DerivedValue{
				{
					Src: record.KeyPath{"file_path"},
					Dst: record.KeyPath{"file"},
					Fns: []transform.MapperFunc{
						func(v any) (any, error) {
							s, ok := v.(string)
							if !ok {
								return nil, fmt.Errorf("file_path is not a string")
							}
							return filepath.Base(s), nil
						},
					},
				},
			},
		},
	}
}

func buildLoaders(cfg *config.Config) ([]load.Loader, error) {
	var loaders []load.Loader

	valuesPaths := []load.ValuesPath{
		{Title: "word", Path: record.KeyPath{"word"}, Required: true},
		{Title: "file", Path: record.KeyPath{"file"}, Required: true},
	}

	if c := cfg.Sinks.CSV; c != nil {
		loaders = append(loaders, &load.CSVLoader{
			Dir:         c.Dir,
			Prefix:      c.Prefix,
			Extension:   c.Extension,
			Separator:   c.Separator,
			ValuesPaths: valuesPaths,
			BufferSize:  c.BufferSize,
			Compression: compress.Algorithm(c.Compression),
		})
	}

	if c := cfg.Sinks.SQL; c != nil {
		dsn := c.DSN
		driver := c.Driver
		if driver == "" {
			driver = "mysql"
		}
		loaders = append(loaders, &load.SQLLoader{
			Connect:       func() (*sql.DB, error) { return sql.Open(driver, dsn) },
			InsertSQL:     c.InsertSQL,
			ValuesPaths:   valuesPaths,
			BufferSize:    c.BufferSize,
			MaxReconnects: c.MaxReconnects,
		})
	}

	if c := cfg.Sinks.Kafka; c != nil {
		producerCfg := sarama.NewConfig()
		producerCfg.Producer.Return.Successes = true
		producer, err := sarama.NewSyncProducer(c.Brokers, producerCfg)
		if err != nil {
			return nil, etlerr.Wrap(etlerr.CodeSinkTransient, "app", "build_loaders", err, true)
		}
		loaders = append(loaders, &load.KafkaLoader{
			Producer:    producer,
			Topic:       c.Topic,
			ValuesPaths: valuesPaths,
			BufferSize:  c.BufferSize,
		})
	}

	if len(loaders) == 0 {
		return nil, etlerr.New(etlerr.CodeConfigInvalid, "app", "build_loaders", "no sinks configured", true)
	}

	if len(loaders) == 1 {
		return loaders, nil
	}

	return []load.Loader{&load.LoadBalancer{
		Inner:          loaders,
		BufferSize:     cfg.Sinks.LoadBalancerBufferSize,
		QueueCapacity:  cfg.Sinks.LoadBalancerQueueCapacity,
		EnqueueTimeout: time.Duration(cfg.Sinks.LoadBalancerEnqueueTimeout) * time.Millisecond,
	}}, nil
}

// Start launches the pipeline; callers should follow with Join or Run.
func (app *App) Start() error {
	app.logger.Info("starting corpusetl pipeline")
	return app.pipeline.Start(context.Background())
}

// Stop requests a graceful interrupt of the running pipeline.
func (app *App) Stop() error {
	app.logger.Info("stopping corpusetl pipeline")
	return app.pipeline.Stop()
}

// Run starts the pipeline and blocks until it either drains naturally
// or an OS interrupt signal requests a shutdown.
func (app *App) Run() error {
	if err := app.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- app.pipeline.Join() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-done:
		stats := app.pipeline.Stats()
		app.logger.WithFields(logrus.Fields{
			"records_extracted":   stats.RecordsExtracted,
			"records_transformed": stats.RecordsTransformed,
			"records_loaded":      stats.RecordsLoaded,
		}).Info("pipeline drained")
		return err

	case <-sigCh:
		app.logger.Info("shutdown signal received")
		if err := app.Stop(); err != nil {
			return err
		}
		return <-done
	}
}
