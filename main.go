// Package main is the entry point for the prepare-release CLI application.
// prepare-release cuts a release branch from the version declared in a
// version file and moves the development branch to its next version.
package main

import (
	"context"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/prepare-release/cmd"
	"github.com/MyCarrier-DevOps/prepare-release/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/prepare-release/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/prepare-release/internal/adapters/output"
	"github.com/MyCarrier-DevOps/prepare-release/internal/adapters/versionfile"
	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
	"github.com/MyCarrier-DevOps/prepare-release/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/prepare-release/internal/infrastructure/telemetry"
	"github.com/MyCarrier-DevOps/prepare-release/internal/usecases"
	"github.com/MyCarrier-DevOps/prepare-release/internal/version"
)

func main() {
	cmd.SetDefaultDependencies(newDependencies())
	cmd.Execute()
}

// newDependencies wires up production dependencies.
func newDependencies() *cmd.Dependencies {
	return &cmd.Dependencies{
		// The zap logger reads LOG_LEVEL when built, so it is created after
		// --verbose has been applied.
		LoggerFactory: func() cmd.Logger {
			return logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig()).With(map[string]any{
				"prepare_release_version": version.Resolved(),
			})
		},

		ConfigLoader: func() (*cmd.AppConfig, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return &cmd.AppConfig{
				LogLevel:           cfg.LogLevel,
				LogAppName:         cfg.LogAppName,
				UseGlobalGitConfig: cfg.UseGlobalGitConfig,
				TelemetryEnabled:   cfg.TelemetryEnabled,
			}, nil
		},

		TelemetryInit: func(ctx context.Context, cfg *cmd.AppConfig) (func(context.Context) error, error) {
			shutdown, err := telemetry.Init(ctx, telemetry.Options{
				Enabled:        cfg.TelemetryEnabled,
				ServiceName:    cfg.LogAppName,
				ServiceVersion: version.Resolved(),
			})
			if err != nil {
				return nil, err
			}
			return shutdown, nil
		},

		OutputWriterFactory: func(format string) (cmd.OutputWriter, error) {
			f, err := output.ParseFormat(format)
			if err != nil {
				return nil, err
			}
			return output.NewWriter(f), nil
		},

		PreparerFactory: func(cfg *cmd.AppConfig, out domain.OutputWriter, log cmd.Logger) domain.Preparer {
			store := versionfile.NewStore(log)
			opener := git.NewOpener(git.Options{UseDefaultConfigSearchPaths: cfg.UseGlobalGitConfig}, log)
			return usecases.NewReleasePreparer(
				opener,
				store,
				usecases.NewVersionUpdater(store, out, log),
				out,
				log,
			)
		},

		VersionString: version.String,

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}
