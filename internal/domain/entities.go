// Package domain defines the core business entities and interfaces for prepare-release.
package domain

import (
	"time"
)

// Release setting defaults applied when a version file omits them.
const (
	// VersionPlaceholder is the token a release branch name template must contain.
	VersionPlaceholder = "{version}"

	// DefaultReleaseBranchName is the release branch name template.
	DefaultReleaseBranchName = "v" + VersionPlaceholder

	// DefaultFirstUnstableTag is the prerelease tag given to the next development version.
	DefaultFirstUnstableTag = "alpha"
)

// ReleaseOptions holds the release settings of a version file.
type ReleaseOptions struct {
	// BranchName is the release branch name template. It must contain {version}.
	BranchName string

	// VersionIncrement selects the component advanced on the development branch.
	VersionIncrement VersionIncrement

	// FirstUnstableTag is the prerelease tag of the next development version.
	FirstUnstableTag string
}

// BranchNameOrDefault returns BranchName, or DefaultReleaseBranchName when unset.
func (r ReleaseOptions) BranchNameOrDefault() string {
	if r.BranchName == "" {
		return DefaultReleaseBranchName
	}
	return r.BranchName
}

// VersionIncrementOrDefault returns VersionIncrement, or DefaultVersionIncrement when unset.
func (r ReleaseOptions) VersionIncrementOrDefault() VersionIncrement {
	if r.VersionIncrement == 0 {
		return DefaultVersionIncrement
	}
	return r.VersionIncrement
}

// FirstUnstableTagOrDefault returns FirstUnstableTag, or DefaultFirstUnstableTag when unset.
func (r ReleaseOptions) FirstUnstableTagOrDefault() string {
	if r.FirstUnstableTag == "" {
		return DefaultFirstUnstableTag
	}
	return r.FirstUnstableTag
}

// VersionOptions is the content of a version file for one directory.
type VersionOptions struct {
	// Version is the version declared for the directory.
	Version SemanticVersion

	// Release holds the release branch settings.
	Release ReleaseOptions

	// Path is the file the options were loaded from. Empty for new options.
	Path string
}

// HeadState describes the repository HEAD.
type HeadState struct {
	// Name is the short branch name. Empty when IsDetached is true.
	Name string

	// IsDetached indicates HEAD points at a commit rather than a branch.
	IsDetached bool

	// Commit is the full SHA of the commit HEAD resolves to.
	Commit string

	// Tree is the SHA of the tip commit's root tree.
	Tree string
}

// Signature identifies the author and committer of a commit.
// Name and Email are the author. CommitterName and CommitterEmail are only set
// when the committer identity differs from the author's.
type Signature struct {
	Name  string
	Email string
	When  time.Time

	CommitterName  string
	CommitterEmail string
}

// Committer returns the committer identity, falling back to the author
// field by field.
func (s Signature) Committer() Signature {
	c := Signature{Name: s.Name, Email: s.Email, When: s.When}
	if s.CommitterName != "" {
		c.Name = s.CommitterName
	}
	if s.CommitterEmail != "" {
		c.Email = s.CommitterEmail
	}
	return c
}

// ConflictFavor selects how a merge resolves paths changed on both sides.
type ConflictFavor int

const (
	// ConflictFavorNone fails the merge on any conflicting path.
	ConflictFavorNone ConflictFavor = iota

	// ConflictFavorOurs keeps the destination branch's content.
	ConflictFavorOurs

	// ConflictFavorTheirs takes the merged branch's content.
	ConflictFavorTheirs
)

// MergeOptions controls Repository.Merge.
type MergeOptions struct {
	// ConflictFavor resolves paths changed on both sides.
	ConflictFavor ConflictFavor

	// Message overrides the merge commit message.
	Message string
}

// MergeStatus reports what a merge did.
type MergeStatus string

const (
	// MergeUpToDate means the branch was already merged; nothing changed.
	MergeUpToDate MergeStatus = "up-to-date"

	// MergeCommitted means a merge commit was created.
	MergeCommitted MergeStatus = "committed"
)

// MergeResult is returned by Repository.Merge.
type MergeResult struct {
	Status MergeStatus

	// Commit is the branch tip after the merge.
	Commit string

	// Conflicts lists paths changed on both sides and resolved by ConflictFavor.
	Conflicts []string
}

// PrepareInput contains the parameters for release preparation.
type PrepareInput struct {
	// ProjectDir is the directory whose version file drives the release.
	ProjectDir string

	// NextVersion overrides the computed next development version when set.
	NextVersion *SemanticVersion

	// UnstableTag, when set, becomes the first prerelease tag of the release
	// version. When empty the release version has no prerelease tag.
	UnstableTag string
}

// BranchInfo describes one branch touched by release preparation.
type BranchInfo struct {
	Name    string          `json:"name"`
	Commit  string          `json:"commit"`
	Version SemanticVersion `json:"version"`
}

// PrepareOutput contains the result of a successful release preparation.
type PrepareOutput struct {
	// CurrentBranch is the branch the workflow started (and ended) on.
	CurrentBranch BranchInfo `json:"currentBranch"`

	// NewBranch is the release branch created. Nil when the current branch
	// was itself the release branch and was advanced in place.
	NewBranch *BranchInfo `json:"newBranch,omitempty"`
}
