// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.Repository interface using go-git/v5.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Options controls how a repository is opened.
type Options struct {
	// UseDefaultConfigSearchPaths reads system and global git configuration
	// in addition to the repository's own when resolving the commit identity
	// and the ignore patterns used by IsDirty.
	UseDefaultConfigSearchPaths bool
}

// Opener implements domain.RepositoryOpener using go-git/v5.
type Opener struct {
	opts   Options
	logger Logger
}

// NewOpener creates an Opener that opens repositories with opts.
func NewOpener(opts Options, log Logger) *Opener {
	return &Opener{opts: opts, logger: log}
}

// Open opens the repository containing dir.
func (o *Opener) Open(_ context.Context, dir string) (domain.Repository, error) {
	repo, err := NewGoGitRepository(dir, o.opts, o.logger)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// GoGitRepository implements domain.Repository using go-git/v5.
// It operates on the working tree and index of a non-bare repository.
type GoGitRepository struct {
	repo   *git.Repository
	wt     *git.Worktree
	root   string
	opts   Options
	logger Logger
}

// NewGoGitRepository opens the repository containing path, searching parent
// directories for the .git directory.
// Returns domain.ErrRepositoryNotFound if path is not inside a Git repository.
func NewGoGitRepository(path string, opts Options, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
		}
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, fmt.Errorf("%w: %s is a bare repository", domain.ErrRepositoryNotFound, path)
		}
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	r := &GoGitRepository{
		repo:   repo,
		wt:     wt,
		root:   wt.Filesystem.Root(),
		opts:   opts,
		logger: log,
	}

	// go-git only reads .gitignore files and .git/info/exclude on its own.
	if opts.UseDefaultConfigSearchPaths {
		patterns, err := userExcludes(osfs.New("/"))
		if err != nil {
			log.Warn(context.Background(), "could not read global ignore patterns", map[string]interface{}{
				"path":  r.root,
				"error": err.Error(),
			})
		}
		wt.Excludes = append(wt.Excludes, patterns...)
	}

	return r, nil
}

// userExcludes loads the system and global exclude patterns the way git does:
// core.excludesFile from /etc/gitconfig and ~/.gitconfig, falling back to
// $XDG_CONFIG_HOME/git/ignore (or ~/.config/git/ignore) when the global
// config names no file.
func userExcludes(rootFS billy.Filesystem) ([]gitignore.Pattern, error) {
	system, err := gitignore.LoadSystemPatterns(rootFS)
	if err != nil {
		return nil, fmt.Errorf("system excludes: %w", err)
	}

	global, err := gitignore.LoadGlobalPatterns(rootFS)
	if err != nil {
		return system, fmt.Errorf("global excludes: %w", err)
	}
	if len(global) == 0 {
		if global, err = xdgExcludes(); err != nil {
			return system, err
		}
	}

	return append(system, global...), nil
}

// xdgExcludes reads git's default global ignore file. A missing file yields
// no patterns.
func xdgExcludes() ([]gitignore.Pattern, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		configHome = filepath.Join(home, ".config")
	}

	path := filepath.Join(configHome, "git", "ignore")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, scanner.Err()
}

// Root returns the working tree root directory.
func (r *GoGitRepository) Root() string {
	return r.root
}

// Head describes the current HEAD, including its tip tree.
func (r *GoGitRepository) Head(_ context.Context) (*domain.HeadState, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for HEAD: %w", err)
	}

	state := &domain.HeadState{
		IsDetached: !head.Name().IsBranch(),
		Commit:     head.Hash().String(),
		Tree:       commit.TreeHash.String(),
	}
	if head.Name().IsBranch() {
		state.Name = head.Name().Short()
	}
	return state, nil
}

// IsDirty reports whether the working tree has staged, unstaged or untracked changes.
func (r *GoGitRepository) IsDirty(ctx context.Context) (bool, error) {
	status, err := r.wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}

	if status.IsClean() {
		return false, nil
	}

	r.logger.Debug(ctx, "worktree has changes", map[string]interface{}{
		"path":    r.root,
		"changes": len(status),
	})
	return true, nil
}

// BranchExists reports whether a local branch named name exists.
func (r *GoGitRepository) BranchExists(_ context.Context, name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %s: %w", name, err)
	}
	return true, nil
}

// CreateBranch creates a local branch at the HEAD commit.
func (r *GoGitRepository) CreateBranch(ctx context.Context, name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}

	r.logger.Debug(ctx, "created branch", map[string]interface{}{
		"branch": name,
		"commit": head.Hash().String(),
	})
	return nil
}

// Checkout switches HEAD, the index and the working tree to a local branch.
func (r *GoGitRepository) Checkout(ctx context.Context, name string) error {
	err := r.wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrBranchNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}

	r.logger.Debug(ctx, "checked out branch", map[string]interface{}{
		"branch": name,
	})
	return nil
}

// Stage adds the file at path to the index.
func (r *GoGitRepository) Stage(ctx context.Context, path string) error {
	rel, err := r.relativePath(path)
	if err != nil {
		return err
	}

	if _, err := r.wt.Add(rel); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}

	r.logger.Debug(ctx, "staged file", map[string]interface{}{
		"path": rel,
	})
	return nil
}

// relativePath converts path into a slash-separated path relative to the worktree root.
func (r *GoGitRepository) relativePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}

	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		root = r.root
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		target = path
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the working tree %s", path, r.root)
	}
	return filepath.ToSlash(rel), nil
}

// IndexTree writes the tree objects for the current index and returns the root tree SHA.
// Entries in a conflict stage and intent-to-add entries are skipped, as git write-tree does.
func (r *GoGitRepository) IndexTree(ctx context.Context) (string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return "", fmt.Errorf("failed to read index: %w", err)
	}

	entries := make(map[string]treeFile, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Stage != 0 || e.IntentToAdd {
			continue
		}
		entries[e.Name] = treeFile{hash: e.Hash, mode: e.Mode}
	}

	hash, err := r.writeTree(ctx, entries)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Commit records the index on the current branch. Empty commits are refused.
func (r *GoGitRepository) Commit(ctx context.Context, message string, sig domain.Signature) (string, error) {
	hash, err := r.wt.Commit(message, &git.CommitOptions{
		Author:            toGitSignature(sig),
		Committer:         toGitSignature(sig.Committer()),
		AllowEmptyCommits: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Debug(ctx, "created commit", map[string]interface{}{
		"commit":  hash.String(),
		"message": message,
	})
	return hash.String(), nil
}

// Signature resolves the commit identities from git configuration the way
// git does: author.* and committer.* each take precedence over user.* for
// their own role. Returns (nil, nil) when either identity is incomplete.
func (r *GoGitRepository) Signature(ctx context.Context, when time.Time) (*domain.Signature, error) {
	scope := config.LocalScope
	if r.opts.UseDefaultConfigSearchPaths {
		scope = config.SystemScope
	}

	cfg, err := r.repo.ConfigScoped(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read git config: %w", err)
	}

	name := firstNonEmpty(cfg.Author.Name, cfg.User.Name)
	email := firstNonEmpty(cfg.Author.Email, cfg.User.Email)
	committerName := firstNonEmpty(cfg.Committer.Name, cfg.User.Name)
	committerEmail := firstNonEmpty(cfg.Committer.Email, cfg.User.Email)

	if name == "" || email == "" || committerName == "" || committerEmail == "" {
		r.logger.Warn(ctx, "no commit identity configured", map[string]interface{}{
			"path":           r.root,
			"default_scopes": r.opts.UseDefaultConfigSearchPaths,
		})
		return nil, nil
	}

	sig := &domain.Signature{Name: name, Email: email, When: when}
	if committerName != name {
		sig.CommitterName = committerName
	}
	if committerEmail != email {
		sig.CommitterEmail = committerEmail
	}
	return sig, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}

func toGitSignature(sig domain.Signature) *object.Signature {
	return &object.Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}
