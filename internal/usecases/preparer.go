package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// ReleasePreparer cuts a release branch from the current branch, or advances
// the current branch in place when it already is the release branch.
type ReleasePreparer struct {
	opener  domain.RepositoryOpener
	store   domain.VersionFileStore
	updater *VersionUpdater
	output  domain.OutputWriter
	logger  Logger
	now     func() time.Time
}

// NewReleasePreparer creates a new ReleasePreparer with the given dependencies.
// All dependencies are injected to support testing and SOLID principles.
func NewReleasePreparer(
	opener domain.RepositoryOpener,
	store domain.VersionFileStore,
	updater *VersionUpdater,
	output domain.OutputWriter,
	log Logger,
) *ReleasePreparer {
	return &ReleasePreparer{
		opener:  opener,
		store:   store,
		updater: updater,
		output:  output,
		logger:  log,
		now:     time.Now,
	}
}

// PrepareRelease runs release preparation for input.ProjectDir.
//
// On the release branch itself the version is moved to the release version
// and nothing else happens. Otherwise the release branch is created with the
// release version committed on it, the current branch is moved to the next
// development version, and the release branch is merged back into the current
// branch keeping the current branch's content on conflict.
//
// Commits made before a failure are left in place.
func (p *ReleasePreparer) PrepareRelease(
	ctx context.Context,
	input domain.PrepareInput,
) (out *domain.PrepareOutput, retErr error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "PrepareRelease",
		trace.WithAttributes(attribute.String("project.dir", input.ProjectDir)),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	dir := input.ProjectDir
	repo, err := p.opener.Open(ctx, dir)
	if errors.Is(err, domain.ErrRepositoryNotFound) {
		p.output.WriteError(fmt.Sprintf("No git repository found at %s.", dir))
		return nil, fmt.Errorf("%w: %s", domain.ErrNoGitRepo, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			p.logger.Warn(ctx, "failed to close repository", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	head, sig, err := p.validate(ctx, repo)
	if err != nil {
		return nil, err
	}

	opts, err := p.store.Load(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load version file: %w", err)
	}
	if opts == nil {
		p.output.WriteError(fmt.Sprintf("No version file found for %s.", dir))
		return nil, fmt.Errorf("%w: %s", domain.ErrNoVersionFile, dir)
	}

	if !domain.ValidPrereleaseTag(input.UnstableTag) {
		p.output.WriteError(fmt.Sprintf("Invalid prerelease tag %q.", input.UnstableTag))
		return nil, fmt.Errorf("%w: prerelease tag %q", domain.ErrInvalidVersion, input.UnstableTag)
	}
	current := opts.Version
	releaseVersion := current.WithoutPrereleaseTags()
	if input.UnstableTag != "" {
		releaseVersion = current.SetFirstPrereleaseTag(input.UnstableTag)
	}

	releaseBranch, err := opts.Release.ResolveBranchName(releaseVersion)
	if err != nil {
		p.output.WriteError(fmt.Sprintf(
			"The release branch name setting %q must contain %s.",
			opts.Release.BranchNameOrDefault(), domain.VersionPlaceholder))
		return nil, err
	}

	p.logger.Info(ctx, "preparing release", map[string]interface{}{
		"branch":          head.Name,
		"release_branch":  releaseBranch,
		"current_version": current.String(),
		"release_version": releaseVersion.String(),
	})

	if strings.EqualFold(head.Name, releaseBranch) {
		return p.advance(ctx, dir, repo, head.Name, current, releaseVersion)
	}

	exists, err := repo.BranchExists(ctx, releaseBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to look up branch %s: %w", releaseBranch, err)
	}
	if exists {
		p.output.WriteError(fmt.Sprintf("The branch %s already exists.", releaseBranch))
		return nil, fmt.Errorf("%w: %s", domain.ErrBranchAlreadyExists, releaseBranch)
	}

	nextVersion, err := p.nextDevVersion(input, opts)
	if err != nil {
		p.output.WriteError(fmt.Sprintf(
			"Cannot apply the %s version increment to %s.",
			opts.Release.VersionIncrementOrDefault(), current))
		return nil, err
	}

	if err := repo.CreateBranch(ctx, releaseBranch); err != nil {
		return nil, fmt.Errorf("failed to create branch %s: %w", releaseBranch, err)
	}
	if err := repo.Checkout(ctx, releaseBranch); err != nil {
		return nil, fmt.Errorf("failed to check out %s: %w", releaseBranch, err)
	}
	if err := p.updater.UpdateVersion(ctx, dir, repo, current, releaseVersion); err != nil {
		return nil, err
	}
	releaseHead, err := repo.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	p.output.WriteProgress(fmt.Sprintf(
		"%s branch now tracks v%s stabilization and release.", releaseBranch, releaseVersion))

	if err := repo.Checkout(ctx, head.Name); err != nil {
		return nil, fmt.Errorf("failed to check out %s: %w", head.Name, err)
	}
	if err := p.updater.UpdateVersion(ctx, dir, repo, current, nextVersion); err != nil {
		return nil, err
	}
	p.output.WriteProgress(fmt.Sprintf(
		"%s branch now tracks v%s development.", head.Name, nextVersion))

	merge, err := repo.Merge(ctx, releaseBranch, *sig, domain.MergeOptions{
		ConflictFavor: domain.ConflictFavorOurs,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMergeConflict) {
			p.output.WriteError(fmt.Sprintf("Merging %s into %s left unresolved conflicts.", releaseBranch, head.Name))
		}
		return nil, fmt.Errorf("failed to merge %s: %w", releaseBranch, err)
	}

	p.logger.Info(ctx, "release prepared", map[string]interface{}{
		"branch":         head.Name,
		"release_branch": releaseBranch,
		"merge_status":   string(merge.Status),
		"merge_commit":   merge.Commit,
		"conflicts":      merge.Conflicts,
	})

	return &domain.PrepareOutput{
		CurrentBranch: domain.BranchInfo{Name: head.Name, Commit: merge.Commit, Version: nextVersion},
		NewBranch:     &domain.BranchInfo{Name: releaseBranch, Commit: releaseHead.Commit, Version: releaseVersion},
	}, nil
}

// validate checks that the repository can take release commits and returns
// HEAD and the commit signature.
func (p *ReleasePreparer) validate(
	ctx context.Context,
	repo domain.Repository,
) (*domain.HeadState, *domain.Signature, error) {
	head, err := repo.Head(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.IsDetached {
		p.output.WriteError("HEAD is detached. Check out a branch first.")
		return nil, nil, fmt.Errorf("%w: at %s", domain.ErrDetachedHead, head.Commit)
	}

	dirty, err := repo.IsDirty(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read working tree status: %w", err)
	}
	if dirty {
		p.output.WriteError("Uncommitted changes in the working tree. Commit or stash them first.")
		return nil, nil, domain.ErrUncommittedChanges
	}

	sig, err := repo.Signature(ctx, p.now())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve commit signature: %w", err)
	}
	if sig == nil {
		p.output.WriteError("Cannot commit: set git user.name and user.email.")
		return nil, nil, domain.ErrUserNotConfigured
	}
	return head, sig, nil
}

// advance moves the release branch that is already checked out to the release version.
func (p *ReleasePreparer) advance(
	ctx context.Context,
	dir string,
	repo domain.Repository,
	branch string,
	current, releaseVersion domain.SemanticVersion,
) (*domain.PrepareOutput, error) {
	if err := p.updater.UpdateVersion(ctx, dir, repo, current, releaseVersion); err != nil {
		return nil, err
	}
	p.output.WriteProgress(fmt.Sprintf(
		"%s branch now tracks v%s stabilization and release.", branch, releaseVersion))

	head, err := repo.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	return &domain.PrepareOutput{
		CurrentBranch: domain.BranchInfo{Name: branch, Commit: head.Commit, Version: releaseVersion},
	}, nil
}

// nextDevVersion returns the version the current branch moves to after the release branch is cut.
func (p *ReleasePreparer) nextDevVersion(
	input domain.PrepareInput,
	opts *domain.VersionOptions,
) (domain.SemanticVersion, error) {
	if input.NextVersion != nil {
		return *input.NextVersion, nil
	}
	next, err := opts.Version.Increment(opts.Release.VersionIncrementOrDefault())
	if err != nil {
		return domain.SemanticVersion{}, err
	}
	return next.SetFirstPrereleaseTag(opts.Release.FirstUnstableTagOrDefault()), nil
}
