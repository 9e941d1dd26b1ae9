// Package cmd provides the CLI commands for prepare-release.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// OutputWriter writes progress, diagnostics and the final result of a run.
type OutputWriter interface {
	domain.OutputWriter

	// WriteResult reports a successful run. Text output writes nothing.
	WriteResult(result *domain.PrepareOutput) error
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance. It is called after --verbose
	// has been applied to the environment.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*AppConfig, error)

	// TelemetryInit installs tracing and returns its shutdown function. Optional.
	TelemetryInit func(ctx context.Context, cfg *AppConfig) (func(context.Context) error, error)

	// OutputWriterFactory creates the writer for the --format value.
	// An error means the format is not supported.
	OutputWriterFactory func(format string) (OutputWriter, error)

	// PreparerFactory creates the release preparer.
	PreparerFactory func(cfg *AppConfig, out domain.OutputWriter, log Logger) domain.Preparer

	// VersionString describes the build for the version command.
	VersionString func() string

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string

	// UseGlobalGitConfig searches system and global git config for the commit identity.
	UseGlobalGitConfig bool

	// TelemetryEnabled turns on tracing.
	TelemetryEnabled bool
}

// Command-line flags.
var (
	nextVersion string
	unstableTag string
	format      string
	verbose     bool
)

// telemetryShutdownTimeout bounds the final span flush.
const telemetryShutdownTimeout = 5 * time.Second

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for prepare-release.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prepare-release [projectDirectory]",
		Short: "Create a release branch and advance the development version",
		Long: `prepare-release cuts a release branch for the version in version.json.

On a development branch it creates the release branch (v{version} by default)
with the prerelease tag removed from the version, moves the current branch to
the next development version, and merges the release branch back keeping the
current branch's version file. Run on the release branch itself, it only
removes the prerelease tag.

The working tree must be clean and a git user name and email must be configured.

Examples:
  # Prepare a release from the current directory
  prepare-release

  # Stabilize as a release candidate and pick the next version explicitly
  prepare-release --tag rc --next-version 2.0-alpha

  # Machine-readable result
  prepare-release ./src/lib --format json

Exit codes:
  0 success, 1 unexpected failure, 2 no git repository, 3 uncommitted changes,
  4 invalid branch name setting, 5 no version file, 6 version decrement,
  7 release branch exists, 8 user not configured, 9 detached HEAD,
  10 invalid version increment, 11 merge conflict, 64 usage error`,
		Args:          maxArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, args, deps)
		},
	}

	rootCmd.Flags().StringVar(&nextVersion, "next-version", "",
		"Version to set on the current branch after the release branch is created")
	rootCmd.Flags().StringVarP(&unstableTag, "tag", "t", "",
		"Prerelease tag for the release version (default: no prerelease tag)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text",
		"Output format: text or json")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(newVersionCmd(deps))

	return rootCmd
}

// normalizeFlagName accepts the camelCase spelling of --next-version.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "nextVersion" {
		name = "next-version"
	}
	return pflag.NormalizedName(name)
}

// maxArgs is cobra.MaximumNArgs reporting a UsageError.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// runPrepare executes release preparation with injected dependencies.
func runPrepare(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Determine project directory
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}

	// Get stderr for warnings
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	input, err := parseInput(projectDir)
	if err != nil {
		return err
	}

	writer, err := deps.OutputWriterFactory(format)
	if err != nil {
		return &UsageError{Err: err}
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	// Load configuration
	cfg, err := deps.ConfigLoader()
	if err != nil {
		writer.WriteError(fmt.Sprintf("Configuration error: %v", err))
		return reported(fmt.Errorf("configuration error: %w", err))
	}

	// Initialize logger
	log := deps.LoggerFactory()

	if deps.TelemetryInit != nil {
		shutdown, err := deps.TelemetryInit(ctx, cfg)
		if err != nil {
			log.Warn(ctx, "telemetry disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					writeWarningf(stderr, "warning: could not flush telemetry: %v\n", err)
				}
			}()
		}
	}

	log.Info(ctx, "starting prepare-release", map[string]interface{}{
		"project_dir":  input.ProjectDir,
		"next_version": nextVersion,
		"tag":          input.UnstableTag,
		"format":       format,
		"verbose":      verbose,
	})

	preparer := deps.PreparerFactory(cfg, writer, log)
	result, err := preparer.PrepareRelease(ctx, input)
	if err != nil {
		log.Error(ctx, "release preparation failed", err, map[string]interface{}{
			"project_dir": input.ProjectDir,
			"exit_code":   ExitCode(err),
		})
		// Known failures already wrote their own diagnostic line.
		if ExitCode(err) == ExitUnexpected {
			writer.WriteError(fmt.Sprintf("Release preparation failed: %v", err))
		}
		return reported(err)
	}

	if err := writer.WriteResult(result); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		writer.WriteError(fmt.Sprintf("Output error: %v", err))
		return reported(fmt.Errorf("output error: %w", err))
	}

	fields := map[string]interface{}{
		"branch":  result.CurrentBranch.Name,
		"version": result.CurrentBranch.Version.String(),
	}
	if result.NewBranch != nil {
		fields["release_branch"] = result.NewBranch.Name
		fields["release_version"] = result.NewBranch.Version.String()
	}
	log.Info(ctx, "release preparation complete", fields)

	return nil
}

// parseInput validates the flag values and builds the preparer input.
func parseInput(projectDir string) (domain.PrepareInput, error) {
	input := domain.PrepareInput{
		ProjectDir:  projectDir,
		UnstableTag: unstableTag,
	}

	if nextVersion != "" {
		v, err := domain.ParseSemanticVersion(nextVersion)
		if err != nil {
			return input, &UsageError{Err: fmt.Errorf("--next-version: %w", err)}
		}
		input.NextVersion = &v
	}

	if !domain.ValidPrereleaseTag(unstableTag) {
		return input, &UsageError{Err: fmt.Errorf("--tag: %q is not a valid prerelease tag", unstableTag)}
	}

	return input, nil
}

// Execute runs the root command and exits with the code for its error.
func Execute() {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		writeWarningf(os.Stderr, "Error: %v\nRun '%s --help' for usage.\n", err, rootCmd.Name())
	} else if !isReported(err) {
		writeWarningf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		return
	}
}
