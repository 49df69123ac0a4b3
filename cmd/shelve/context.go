package main

import (
	"log/slog"
	"strings"
	"sync"

	"shelve/internal/classify"
	"shelve/internal/config"
	"shelve/internal/history"
	"shelve/internal/logging"
	"shelve/internal/pipeline"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger: stdout plus the persistent log
// file under the configured log directory.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stdout", cfg.LogFilePath()},
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) historyStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.HistoryPath(), logger), nil
}

// newPipeline wires the model-backed categorizer into the organize flow.
// Commands that never categorize (dupes, history, undo) do not pay the
// classifier requirement.
func (c *commandContext) newPipeline() (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireClassifier(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	client := classify.NewClient(classify.ClientConfig{
		APIKey:         cfg.Classifier.APIKey,
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
	})
	categorizer := classify.NewCategorizer(client, cfg.Classifier.TitleCaseFolders, logger)
	store := history.NewStore(cfg.HistoryPath(), logger)
	return pipeline.New(cfg, categorizer, store, logger), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
