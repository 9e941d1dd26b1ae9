package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// treeFile is a non-directory tree entry keyed elsewhere by its full path.
type treeFile struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// Merge merges the local branch into the current branch with a file-level
// three-way merge against their merge base. Paths changed on one side take
// that side's content; paths changed differently on both sides are resolved
// by opts.ConflictFavor. A two-parent merge commit is always created unless
// the branch is already contained in HEAD, and the worktree is reset to it.
func (r *GoGitRepository) Merge(
	ctx context.Context,
	branch string,
	sig domain.Signature,
	opts domain.MergeOptions,
) (*domain.MergeResult, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	ours, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for HEAD: %w", err)
	}

	theirsRef, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBranchNotFound, branch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}
	theirs, err := r.repo.CommitObject(theirsRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for %s: %w", branch, err)
	}

	if theirs.Hash == ours.Hash {
		return &domain.MergeResult{Status: domain.MergeUpToDate, Commit: ours.Hash.String()}, nil
	}
	merged, err := theirs.IsAncestor(ours)
	if err != nil {
		return nil, fmt.Errorf("failed to walk history of %s: %w", branch, err)
	}
	if merged {
		return &domain.MergeResult{Status: domain.MergeUpToDate, Commit: ours.Hash.String()}, nil
	}

	bases, err := ours.MergeBase(theirs)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base with %s: %w", branch, err)
	}

	var baseFiles map[string]treeFile
	if len(bases) > 0 {
		if baseFiles, err = commitFiles(ctx, bases[0]); err != nil {
			return nil, err
		}
	}
	oursFiles, err := commitFiles(ctx, ours)
	if err != nil {
		return nil, err
	}
	theirsFiles, err := commitFiles(ctx, theirs)
	if err != nil {
		return nil, err
	}

	result, conflicts, unresolved := mergeFiles(baseFiles, oursFiles, theirsFiles, opts.ConflictFavor)
	if len(unresolved) > 0 {
		return nil, fmt.Errorf("%w: %s into %s: %s",
			domain.ErrMergeConflict, branch, head.Name().Short(), strings.Join(unresolved, ", "))
	}

	treeHash, err := r.writeTree(ctx, result)
	if err != nil {
		return nil, err
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s'", branch)
	}
	commit := &object.Commit{
		Author:       *toGitSignature(sig),
		Committer:    *toGitSignature(sig.Committer()),
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{ours.Hash, theirs.Hash},
	}
	commitHash, err := r.storeObject(commit)
	if err != nil {
		return nil, fmt.Errorf("failed to write merge commit: %w", err)
	}

	if err := r.wt.Reset(&git.ResetOptions{Commit: commitHash, Mode: git.HardReset}); err != nil {
		return nil, fmt.Errorf("failed to move %s to merge commit: %w", head.Name().Short(), err)
	}

	r.logger.Debug(ctx, "merged branch", map[string]interface{}{
		"branch":    branch,
		"commit":    commitHash.String(),
		"conflicts": conflicts,
	})

	return &domain.MergeResult{
		Status:    domain.MergeCommitted,
		Commit:    commitHash.String(),
		Conflicts: conflicts,
	}, nil
}

// mergeFiles performs a file-level three-way merge. It returns the merged
// file set, the conflicting paths resolved by favor, and the conflicting
// paths left unresolved (only when favor is ConflictFavorNone).
func mergeFiles(
	base, ours, theirs map[string]treeFile,
	favor domain.ConflictFavor,
) (merged map[string]treeFile, conflicts, unresolved []string) {
	paths := make(map[string]struct{}, len(ours)+len(theirs))
	for _, set := range []map[string]treeFile{base, ours, theirs} {
		for p := range set {
			paths[p] = struct{}{}
		}
	}

	merged = make(map[string]treeFile, len(paths))
	take := func(p string, set map[string]treeFile) {
		if f, ok := set[p]; ok {
			merged[p] = f
		}
	}

	for p := range paths {
		switch {
		case sameEntry(p, ours, theirs), sameEntry(p, base, theirs):
			take(p, ours)
		case sameEntry(p, base, ours):
			take(p, theirs)
		default:
			switch favor {
			case domain.ConflictFavorOurs:
				take(p, ours)
				conflicts = append(conflicts, p)
			case domain.ConflictFavorTheirs:
				take(p, theirs)
				conflicts = append(conflicts, p)
			default:
				unresolved = append(unresolved, p)
			}
		}
	}

	sort.Strings(conflicts)
	sort.Strings(unresolved)
	return merged, conflicts, unresolved
}

// sameEntry reports whether path is absent from both sets or present in both
// with identical content and mode.
func sameEntry(path string, a, b map[string]treeFile) bool {
	fa, inA := a[path]
	fb, inB := b[path]
	if inA != inB {
		return false
	}
	return !inA || fa == fb
}

// commitFiles lists every non-directory entry of a commit's tree by full path.
func commitFiles(ctx context.Context, c *object.Commit) (map[string]treeFile, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", c.Hash, err)
	}

	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	files := make(map[string]treeFile)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to walk tree of %s: %w", c.Hash, err)
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		files[name] = treeFile{hash: entry.Hash, mode: entry.Mode}
	}
	return files, nil
}

// treeNode is one directory level while building trees.
type treeNode struct {
	files map[string]treeFile
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{files: map[string]treeFile{}, dirs: map[string]*treeNode{}}
}

func (n *treeNode) dir(name string) *treeNode {
	child, ok := n.dirs[name]
	if !ok {
		child = newTreeNode()
		n.dirs[name] = child
	}
	return child
}

// writeTree stores the tree objects for files (keyed by slash-separated path)
// and returns the root tree hash.
func (r *GoGitRepository) writeTree(ctx context.Context, files map[string]treeFile) (plumbing.Hash, error) {
	root := newTreeNode()
	for path, f := range files {
		parts := strings.Split(path, "/")
		n := root
		for _, d := range parts[:len(parts)-1] {
			n = n.dir(d)
		}
		n.files[parts[len(parts)-1]] = f
	}
	return r.writeTreeNode(ctx, root)
}

func (r *GoGitRepository) writeTreeNode(ctx context.Context, n *treeNode) (plumbing.Hash, error) {
	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, err
	}

	entries := make([]object.TreeEntry, 0, len(n.files)+len(n.dirs))
	for name, child := range n.dirs {
		hash, err := r.writeTreeNode(ctx, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	for name, f := range n.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: f.mode, Hash: f.hash})
	}

	// git orders tree entries as if directory names had a trailing slash.
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})

	hash, err := r.storeObject(&object.Tree{Entries: entries})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to write tree: %w", err)
	}
	return hash, nil
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// encodable is implemented by go-git objects that can be written to the object store.
type encodable interface {
	Encode(plumbing.EncodedObject) error
}

// storeObject encodes obj into the object store unless it already exists.
func (r *GoGitRepository) storeObject(obj encodable) (plumbing.Hash, error) {
	encoded := r.repo.Storer.NewEncodedObject()
	if err := obj.Encode(encoded); err != nil {
		return plumbing.ZeroHash, err
	}

	hash := encoded.Hash()
	if err := r.repo.Storer.HasEncodedObject(hash); err == nil {
		return hash, nil
	}
	return r.repo.Storer.SetEncodedObject(encoded)
}
