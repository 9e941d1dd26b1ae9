package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseOptions_ResolveBranchName(t *testing.T) {
	tests := []struct {
		name     string
		template string
		version  string
		want     string
		wantErr  bool
	}{
		{name: "default template", template: "", version: "1.2", want: "v1.2"},
		{name: "prerelease and metadata dropped", template: "v{version}", version: "1.2.3-beta.1+abc", want: "v1.2.3"},
		{name: "prefix path", template: "release/v{version}", version: "2.0", want: "release/v2.0"},
		{name: "repeated placeholder", template: "{version}-{version}", version: "1.0", want: "1.0-1.0"},
		{name: "other braces untouched", template: "rel-{major}-{version}", version: "3.1", want: "rel-{major}-3.1"},
		{name: "missing placeholder", template: "release", version: "1.0", wantErr: true},
		{name: "wrong case placeholder", template: "v{Version}", version: "1.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ReleaseOptions{BranchName: tt.template}
			got, err := opts.ResolveBranchName(MustParseSemanticVersion(tt.version))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidBranchNameSetting)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReleaseOptions_Defaults(t *testing.T) {
	var opts ReleaseOptions

	assert.Equal(t, "v{version}", opts.BranchNameOrDefault())
	assert.Equal(t, IncrementMinor, opts.VersionIncrementOrDefault())
	assert.Equal(t, "alpha", opts.FirstUnstableTagOrDefault())

	opts = ReleaseOptions{BranchName: "rel/{version}", VersionIncrement: IncrementBuild, FirstUnstableTag: "pre"}
	assert.Equal(t, "rel/{version}", opts.BranchNameOrDefault())
	assert.Equal(t, IncrementBuild, opts.VersionIncrementOrDefault())
	assert.Equal(t, "pre", opts.FirstUnstableTagOrDefault())
}
