// Package domain defines the core business entities and interfaces for prepare-release.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
	"time"
)

// Release preparation errors. Each one aborts the workflow.
var (
	// ErrNoGitRepo indicates the project directory is not inside a git repository.
	ErrNoGitRepo = errors.New("no git repository found")

	// ErrUncommittedChanges indicates the working tree has uncommitted changes.
	ErrUncommittedChanges = errors.New("uncommitted changes in working tree")

	// ErrInvalidBranchNameSetting indicates the release branch name template is unusable.
	ErrInvalidBranchNameSetting = errors.New("invalid release branch name setting")

	// ErrNoVersionFile indicates no version file was found for the project directory.
	ErrNoVersionFile = errors.New("no version file found")

	// ErrVersionDecrement indicates a version update would move the version backwards.
	ErrVersionDecrement = errors.New("version decrement")

	// ErrBranchAlreadyExists indicates the release branch to create already exists.
	ErrBranchAlreadyExists = errors.New("release branch already exists")

	// ErrUserNotConfigured indicates no commit author identity is configured.
	ErrUserNotConfigured = errors.New("git user name and email are not configured")

	// ErrDetachedHead indicates HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrInvalidVersionIncrement indicates the version increment setting cannot be applied.
	ErrInvalidVersionIncrement = errors.New("invalid version increment setting")

	// ErrMergeConflict indicates a merge left paths that could not be resolved.
	ErrMergeConflict = errors.New("merge conflict")
)

// Gateway errors.
var (
	// ErrRepositoryNotFound indicates the specified path is not a valid Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrBranchNotFound indicates a named branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrInvalidVersionFile indicates a version file could not be parsed or validated.
	ErrInvalidVersionFile = errors.New("invalid version file")
)

// RepositoryOpener opens the repository containing a directory.
type RepositoryOpener interface {
	// Open opens the repository containing dir, searching parent directories.
	// Returns ErrRepositoryNotFound if dir is not inside a repository.
	Open(ctx context.Context, dir string) (Repository, error)
}

// Repository is the set of git operations release preparation needs.
// Implementations operate on the working tree and index of a single checkout.
type Repository interface {
	// Head describes the current HEAD.
	Head(ctx context.Context) (*HeadState, error)

	// IsDirty reports whether the working tree or index differ from HEAD,
	// untracked files included.
	IsDirty(ctx context.Context) (bool, error)

	// BranchExists reports whether a local branch with the exact name exists.
	BranchExists(ctx context.Context, name string) (bool, error)

	// CreateBranch creates a local branch pointing at HEAD without checking it out.
	CreateBranch(ctx context.Context, name string) error

	// Checkout switches the working tree to a local branch.
	Checkout(ctx context.Context, name string) error

	// Stage adds the file at path (absolute or relative to the working tree root) to the index.
	Stage(ctx context.Context, path string) error

	// IndexTree returns the SHA of the tree the current index would commit.
	IndexTree(ctx context.Context) (string, error)

	// Commit records the index as a new commit on the current branch and returns its SHA.
	// Empty commits are refused.
	Commit(ctx context.Context, message string, sig Signature) (string, error)

	// Merge merges the named local branch into the current branch.
	Merge(ctx context.Context, branch string, sig Signature, opts MergeOptions) (*MergeResult, error)

	// Signature returns the configured commit identity stamped with when.
	// Returns (nil, nil) if no user name and email are configured.
	Signature(ctx context.Context, when time.Time) (*Signature, error)

	// Close releases any resources held by the repository.
	Close() error
}

// VersionFileStore reads and writes version files.
type VersionFileStore interface {
	// Load reads the version options that apply to dir from the working tree.
	// Returns (nil, nil) if no version file applies to dir.
	Load(ctx context.Context, dir string) (*VersionOptions, error)

	// Save writes opts for dir and returns the path of the written file.
	// includeSchema adds the schema reference property to the file.
	Save(ctx context.Context, dir string, opts *VersionOptions, includeSchema bool) (string, error)
}

// OutputWriter receives human-readable progress and failure lines.
// Writes are best-effort.
type OutputWriter interface {
	// WriteProgress writes one informational line.
	WriteProgress(msg string)

	// WriteError writes one diagnostic line.
	WriteError(msg string)
}

// Preparer prepares a release.
type Preparer interface {
	// PrepareRelease runs release preparation for input.ProjectDir.
	PrepareRelease(ctx context.Context, input PrepareInput) (*PrepareOutput, error)
}
