// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

const tracerName = "github.com/MyCarrier-DevOps/prepare-release/usecases"

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// VersionUpdater writes a new version into a directory's version file and
// commits it on the currently checked out branch.
type VersionUpdater struct {
	store  domain.VersionFileStore
	output domain.OutputWriter
	logger Logger
	now    func() time.Time
}

// NewVersionUpdater creates a new VersionUpdater with the given dependencies.
func NewVersionUpdater(
	store domain.VersionFileStore,
	output domain.OutputWriter,
	log Logger,
) *VersionUpdater {
	return &VersionUpdater{
		store:  store,
		output: output,
		logger: log,
		now:    time.Now,
	}
}

// UpdateVersion moves the version of dir from oldVersion to newVersion and
// commits the change. It is a no-op when the version file on the current
// branch already holds newVersion, and it never creates an empty commit.
func (u *VersionUpdater) UpdateVersion(
	ctx context.Context,
	dir string,
	repo domain.Repository,
	oldVersion, newVersion domain.SemanticVersion,
) (retErr error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "UpdateVersion",
		trace.WithAttributes(
			attribute.String("version.old", oldVersion.String()),
			attribute.String("version.new", newVersion.String()),
		),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	sig, err := repo.Signature(ctx, u.now())
	if err != nil {
		return fmt.Errorf("failed to resolve commit signature: %w", err)
	}
	if sig == nil {
		u.output.WriteError("Cannot commit the version change: set git user.name and user.email.")
		return domain.ErrUserNotConfigured
	}

	opts, err := u.store.Load(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to load version file: %w", err)
	}
	if opts == nil {
		u.output.WriteError(fmt.Sprintf("No version file found for %s.", dir))
		return fmt.Errorf("%w: %s", domain.ErrNoVersionFile, dir)
	}

	if domain.IsDecrement(oldVersion, newVersion) {
		u.output.WriteError(fmt.Sprintf(
			"Cannot change version from %s to %s because it would be a version decrement.",
			oldVersion, newVersion))
		return fmt.Errorf("%w: %s to %s", domain.ErrVersionDecrement, oldVersion, newVersion)
	}

	if opts.Version == newVersion {
		u.logger.Debug(ctx, "version already set, nothing to do", map[string]interface{}{
			"version": newVersion.String(),
			"path":    opts.Path,
		})
		return nil
	}

	opts.Version = newVersion
	path, err := u.store.Save(ctx, dir, opts, true)
	if err != nil {
		return fmt.Errorf("failed to save version file: %w", err)
	}
	if err := repo.Stage(ctx, path); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}
	tree, err := repo.IndexTree(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute index tree: %w", err)
	}
	if tree == head.Tree {
		u.logger.Debug(ctx, "staged tree matches branch tip, skipping commit", map[string]interface{}{
			"branch": head.Name,
			"tree":   tree,
		})
		return nil
	}

	commit, err := repo.Commit(ctx, fmt.Sprintf("Set version to '%s'", newVersion), *sig)
	if err != nil {
		return fmt.Errorf("failed to commit version change: %w", err)
	}

	u.logger.Info(ctx, "committed version change", map[string]interface{}{
		"branch":  head.Name,
		"commit":  commit,
		"version": newVersion.String(),
		"path":    path,
	})
	return nil
}
