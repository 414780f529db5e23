package commands

import (
	"errors"

	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var ErrNameRequired = errors.New("NAME argument required")

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	Config   *config.Config
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
