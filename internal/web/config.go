package web

import (
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const configPrefix = "nalseg"

// LoadConfig reads NALSEG_* environment variables on top of the defaults.
func LoadConfig() (*entities.Config, error) {
	var c entities.Config
	if err := envconfig.Process(configPrefix, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func NewLogger(c *entities.Config) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
