// Package versionfile provides the adapter that reads and writes version files.
// This package implements the domain.VersionFileStore interface for
// version.json, version.yaml and version.toml files.
package versionfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

// SchemaURL is written to the $schema property of saved version files.
const SchemaURL = "https://raw.githubusercontent.com/MyCarrier-DevOps/prepare-release/main/version.schema.json"

// schemaKey is the schema reference property name.
const schemaKey = "$schema"

// Logger defines the logging interface for the version file store.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// fileModel is the on-disk shape of a version file.
type fileModel struct {
	Schema  string        `json:"$schema,omitempty" yaml:"$schema,omitempty" toml:"$schema,omitempty"`
	Version string        `json:"version" yaml:"version" toml:"version"`
	Release *releaseModel `json:"release,omitempty" yaml:"release,omitempty" toml:"release,omitempty"`
}

type releaseModel struct {
	BranchName       string `json:"branchName,omitempty" yaml:"branchName,omitempty" toml:"branchName,omitempty"`
	VersionIncrement string `json:"versionIncrement,omitempty" yaml:"versionIncrement,omitempty" toml:"versionIncrement,omitempty"`
	FirstUnstableTag string `json:"firstUnstableTag,omitempty" yaml:"firstUnstableTag,omitempty" toml:"firstUnstableTag,omitempty"`
}

// Store implements domain.VersionFileStore on the local filesystem.
// Every Load reads the working tree; nothing is cached.
type Store struct {
	logger Logger
}

// NewStore creates a new Store.
func NewStore(log Logger) *Store {
	return &Store{logger: log}
}

// Load finds the version file that applies to dir and parses it.
// The search starts in dir and walks up through its parents, stopping after
// the directory that contains .git. Returns (nil, nil) if none is found.
func (s *Store) Load(ctx context.Context, dir string) (*domain.VersionOptions, error) {
	path, err := s.find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		s.logger.Debug(ctx, "no version file found", map[string]interface{}{
			"dir": dir,
		})
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read version file: %w", err)
	}

	c, _ := codecFor(path)
	var model fileModel
	if err := c.unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidVersionFile, path, err)
	}

	opts, err := toOptions(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidVersionFile, path, err)
	}
	opts.Path = path

	s.logger.Debug(ctx, "loaded version file", map[string]interface{}{
		"path":    path,
		"format":  c.name,
		"version": opts.Version.String(),
	})
	return opts, nil
}

// Save writes opts.Version into the version file for dir and returns its path.
// The file opts was loaded from is rewritten in place with its other
// properties preserved; without one, the version file found for dir is used,
// or a new version.json is created in dir. YAML files also keep their comments
// and key order. JSON and TOML files are re-encoded with sorted keys, and TOML
// comments are dropped.
func (s *Store) Save(
	ctx context.Context,
	dir string,
	opts *domain.VersionOptions,
	includeSchema bool,
) (string, error) {
	if opts == nil || opts.Version.IsZero() {
		return "", errors.New("version options with a version are required")
	}

	path := opts.Path
	if path == "" {
		found, err := s.find(dir)
		if err != nil {
			return "", err
		}
		path = found
	}
	if path == "" {
		path = filepath.Join(dir, DefaultFileName)
	}

	c, ok := codecFor(path)
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type %s", domain.ErrInvalidVersionFile, path)
	}

	raw, existing, perm, err := readRaw(path, c)
	if err != nil {
		return "", err
	}

	var data []byte
	if existing != nil && c.patch != nil {
		data, err = c.patch(existing, opts.Version.String(), includeSchema)
	} else {
		if raw == nil {
			raw = newRaw(opts)
		}
		raw["version"] = opts.Version.String()
		if includeSchema {
			raw[schemaKey] = SchemaURL
		} else {
			delete(raw, schemaKey)
		}
		data, err = c.marshal(raw)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode version file: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return "", fmt.Errorf("failed to write version file: %w", err)
	}

	s.logger.Debug(ctx, "saved version file", map[string]interface{}{
		"path":    path,
		"version": opts.Version.String(),
	})
	return path, nil
}

// find returns the path of the version file that applies to dir, or "".
func (s *Store) find(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		for _, name := range FileNames {
			candidate := filepath.Join(current, name)
			info, err := os.Stat(candidate)
			if err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
			}
		}

		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return "", nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// readRaw decodes an existing file into a generic map so unknown properties
// survive a rewrite, and also returns its bytes. Returns nil for both when
// the file does not exist.
func readRaw(path string, c codec) (map[string]any, []byte, fs.FileMode, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, 0o644, nil
	}
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to stat version file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read version file: %w", err)
	}

	raw := map[string]any{}
	if err := c.unmarshal(data, &raw); err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidVersionFile, path, err)
	}
	return raw, data, info.Mode().Perm(), nil
}

// newRaw builds the properties of a new version file from opts.
func newRaw(opts *domain.VersionOptions) map[string]any {
	raw := map[string]any{}
	release := map[string]any{}
	if opts.Release.BranchName != "" {
		release["branchName"] = opts.Release.BranchName
	}
	if opts.Release.VersionIncrement != 0 {
		release["versionIncrement"] = opts.Release.VersionIncrement.String()
	}
	if opts.Release.FirstUnstableTag != "" {
		release["firstUnstableTag"] = opts.Release.FirstUnstableTag
	}
	if len(release) > 0 {
		raw["release"] = release
	}
	return raw
}

// toOptions validates a decoded file and converts it to domain options.
func toOptions(model fileModel) (*domain.VersionOptions, error) {
	if model.Version == "" {
		return nil, errors.New("version property is required")
	}
	version, err := domain.ParseSemanticVersion(model.Version)
	if err != nil {
		return nil, err
	}

	opts := &domain.VersionOptions{Version: version}
	if model.Release == nil {
		return opts, nil
	}

	opts.Release.BranchName = model.Release.BranchName
	if model.Release.VersionIncrement != "" {
		inc, err := domain.ParseVersionIncrement(model.Release.VersionIncrement)
		if err != nil {
			return nil, err
		}
		opts.Release.VersionIncrement = inc
	}
	if !domain.ValidPrereleaseTag(model.Release.FirstUnstableTag) {
		return nil, fmt.Errorf("invalid firstUnstableTag %q", model.Release.FirstUnstableTag)
	}
	opts.Release.FirstUnstableTag = model.Release.FirstUnstableTag
	return opts, nil
}
