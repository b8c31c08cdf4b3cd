package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spacesedan/tweetclassifier/config"
	"github.com/spacesedan/tweetclassifier/internal/app"
	"github.com/spacesedan/tweetclassifier/internal/logging"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

type classifyService interface {
	Normalize(raw string) string
	Models() []models.ModelInfo
	Classify(ctx context.Context, modelID, raw string) (models.PredictionResult, error)
}

type commandContext struct {
	envFlag      *string
	logLevelFlag *string

	serviceOnce sync.Once
	app         *app.App
	service     classifyService
	serviceErr  error
}

func newCommandContext(envFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		envFlag:      envFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureService builds the normalizer and model registry on first use. The
// CLI never writes to the cache, history table or event stream.
func (c *commandContext) ensureService(ctx context.Context) (classifyService, error) {
	c.serviceOnce.Do(func() {
		if c.service != nil {
			return
		}
		slog.SetDefault(logging.New(os.Stderr, c.logLevel()))

		config.LoadEnv(c.env())
		cfg, err := config.Load()
		if err != nil {
			c.serviceErr = err
			return
		}
		a, err := app.New(ctx, cfg, app.Options{})
		if err != nil {
			c.serviceErr = err
			return
		}
		c.app = a
		c.service = a.Service
	})
	return c.service, c.serviceErr
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
	}
}

func (c *commandContext) env() string {
	if c.envFlag != nil {
		if env := strings.TrimSpace(*c.envFlag); env != "" {
			return env
		}
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "dev"
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return "warn"
	}
	return *c.logLevelFlag
}
