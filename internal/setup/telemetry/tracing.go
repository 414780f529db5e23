package telemetry

import (
	"context"

	"github.com/robalyx/zoonas/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// ShutdownFunc flushes and stops the tracing exporter.
type ShutdownFunc func(ctx context.Context) error

// ConfigureTracing installs the Uptrace OpenTelemetry exporter when a DSN is set.
// Without a DSN spans go to the global no-op provider.
func ConfigureTracing(cfg *config.Telemetry, logger *zap.Logger) ShutdownFunc {
	if cfg.DSN == "" {
		return func(context.Context) error { return nil }
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "zoonas"
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.DSN),
		uptrace.WithServiceName(serviceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.Environment),
	)

	logger.Info("Tracing enabled", zap.String("service", serviceName))

	return uptrace.Shutdown
}
