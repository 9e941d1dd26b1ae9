package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct{}

func (m *mockLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (m *mockLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// mockOutput records every line written.
type mockOutput struct {
	progress []string
	errors   []string
}

func (m *mockOutput) WriteProgress(msg string) { m.progress = append(m.progress, msg) }
func (m *mockOutput) WriteError(msg string)    { m.errors = append(m.errors, msg) }

// fakeCommit is a commit in fakeRepository. The only tracked file content is
// the version string of the version file.
type fakeCommit struct {
	id      string
	version string
	message string
	parents []string
}

// fakeRepository is an in-memory domain.Repository tracking one version file
// across branches, the index and the working tree.
type fakeRepository struct {
	commits  map[string]*fakeCommit
	branches map[string]string
	head     string
	detached bool
	dirty    bool
	sig      *domain.Signature

	worktree string
	index    string

	mergeErr error
	closed   bool
	calls    []string
	seq      int
}

func newFakeRepository(branch, version string) *fakeRepository {
	r := &fakeRepository{
		commits:  map[string]*fakeCommit{},
		branches: map[string]string{},
		head:     branch,
		sig:      &domain.Signature{Name: "Test User", Email: "test@example.com"},
		worktree: version,
		index:    version,
	}
	root := r.addCommit(version, "Initial commit")
	r.branches[branch] = root.id
	return r
}

func (r *fakeRepository) addCommit(version, message string, parents ...string) *fakeCommit {
	r.seq++
	c := &fakeCommit{id: fmt.Sprintf("c%d", r.seq), version: version, message: message, parents: parents}
	r.commits[c.id] = c
	return c
}

func (r *fakeRepository) tip(branch string) *fakeCommit {
	return r.commits[r.branches[branch]]
}

func treeOf(version string) string { return "tree:" + version }

func (r *fakeRepository) Head(_ context.Context) (*domain.HeadState, error) {
	c := r.tip(r.head)
	if r.detached {
		return &domain.HeadState{IsDetached: true, Commit: c.id, Tree: treeOf(c.version)}, nil
	}
	return &domain.HeadState{Name: r.head, Commit: c.id, Tree: treeOf(c.version)}, nil
}

func (r *fakeRepository) IsDirty(_ context.Context) (bool, error) {
	return r.dirty, nil
}

func (r *fakeRepository) BranchExists(_ context.Context, name string) (bool, error) {
	_, ok := r.branches[name]
	return ok, nil
}

func (r *fakeRepository) CreateBranch(_ context.Context, name string) error {
	r.calls = append(r.calls, "create "+name)
	r.branches[name] = r.branches[r.head]
	return nil
}

func (r *fakeRepository) Checkout(_ context.Context, name string) error {
	r.calls = append(r.calls, "checkout "+name)
	if _, ok := r.branches[name]; !ok {
		return domain.ErrBranchNotFound
	}
	r.head = name
	r.worktree = r.tip(name).version
	r.index = r.worktree
	return nil
}

func (r *fakeRepository) Stage(_ context.Context, _ string) error {
	r.index = r.worktree
	return nil
}

func (r *fakeRepository) IndexTree(_ context.Context) (string, error) {
	return treeOf(r.index), nil
}

func (r *fakeRepository) Commit(_ context.Context, message string, _ domain.Signature) (string, error) {
	tip := r.tip(r.head)
	if tip.version == r.index {
		return "", errors.New("empty commit")
	}
	c := r.addCommit(r.index, message, tip.id)
	r.branches[r.head] = c.id
	r.calls = append(r.calls, "commit "+r.head+" "+r.index)
	return c.id, nil
}

// Merge always keeps our version file content.
func (r *fakeRepository) Merge(
	_ context.Context,
	branch string,
	_ domain.Signature,
	opts domain.MergeOptions,
) (*domain.MergeResult, error) {
	r.calls = append(r.calls, "merge "+branch+" into "+r.head)
	if r.mergeErr != nil {
		return nil, r.mergeErr
	}
	if opts.ConflictFavor != domain.ConflictFavorOurs {
		return nil, errors.New("unexpected conflict favor")
	}
	ours := r.tip(r.head)
	theirs := r.tip(branch)
	c := r.addCommit(ours.version, fmt.Sprintf("Merge branch '%s'", branch), ours.id, theirs.id)
	r.branches[r.head] = c.id
	return &domain.MergeResult{Status: domain.MergeCommitted, Commit: c.id}, nil
}

func (r *fakeRepository) Signature(_ context.Context, when time.Time) (*domain.Signature, error) {
	if r.sig == nil {
		return nil, nil
	}
	sig := *r.sig
	sig.When = when
	return &sig, nil
}

func (r *fakeRepository) Close() error {
	r.closed = true
	return nil
}

// commitCount counts every commit, the initial one included.
func (r *fakeRepository) commitCount() int {
	return len(r.commits)
}

// fakeOpener returns a fixed repository.
type fakeOpener struct {
	repo *fakeRepository
	err  error
}

func (o *fakeOpener) Open(_ context.Context, _ string) (domain.Repository, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.repo, nil
}

// fakeStore keeps the version file in the fake repository's working tree.
type fakeStore struct {
	repo    *fakeRepository
	release domain.ReleaseOptions
	missing bool
	loadErr error
	saves   int
}

func (s *fakeStore) Load(_ context.Context, _ string) (*domain.VersionOptions, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.missing {
		return nil, nil
	}
	v, err := domain.ParseSemanticVersion(s.repo.worktree)
	if err != nil {
		return nil, err
	}
	return &domain.VersionOptions{Version: v, Release: s.release, Path: "version.json"}, nil
}

func (s *fakeStore) Save(
	_ context.Context,
	_ string,
	opts *domain.VersionOptions,
	_ bool,
) (string, error) {
	s.saves++
	s.repo.worktree = opts.Version.String()
	return "version.json", nil
}
