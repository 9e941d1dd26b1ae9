package domain

import (
	"fmt"
	"strings"
)

// ResolveBranchName returns the release branch name for v by substituting the
// numeric part of v for {version} in the branch name template.
// Returns ErrInvalidBranchNameSetting when the template lacks {version}.
func (r ReleaseOptions) ResolveBranchName(v SemanticVersion) (string, error) {
	template := r.BranchNameOrDefault()
	if !strings.Contains(template, VersionPlaceholder) {
		return "", fmt.Errorf("%w: %q does not contain %s", ErrInvalidBranchNameSetting, template, VersionPlaceholder)
	}
	return strings.ReplaceAll(template, VersionPlaceholder, v.NumericString()), nil
}
