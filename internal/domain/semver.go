package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Component bounds for a SemanticVersion.
const (
	MinVersionComponents = 2
	MaxVersionComponents = 4
)

// VersionIncrement selects which numeric component Increment advances.
type VersionIncrement int

const (
	// IncrementMajor advances the first component.
	IncrementMajor VersionIncrement = iota + 1

	// IncrementMinor advances the second component.
	IncrementMinor

	// IncrementBuild advances the third component.
	IncrementBuild
)

// DefaultVersionIncrement is used when a version file does not set one.
const DefaultVersionIncrement = IncrementMinor

// String returns the lower-case setting name.
func (i VersionIncrement) String() string {
	switch i {
	case IncrementMajor:
		return "major"
	case IncrementMinor:
		return "minor"
	case IncrementBuild:
		return "build"
	default:
		return fmt.Sprintf("VersionIncrement(%d)", int(i))
	}
}

// index is the zero-based component position the increment touches.
func (i VersionIncrement) index() int {
	return int(i) - 1
}

// ParseVersionIncrement parses a version increment setting (case-insensitive).
func ParseVersionIncrement(s string) (VersionIncrement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return IncrementMajor, nil
	case "minor":
		return IncrementMinor, nil
	case "build":
		return IncrementBuild, nil
	default:
		return 0, fmt.Errorf("%w: unknown version increment %q", ErrInvalidVersionIncrement, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (i VersionIncrement) MarshalText() ([]byte, error) {
	if i < IncrementMajor || i > IncrementBuild {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersionIncrement, int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *VersionIncrement) UnmarshalText(text []byte) error {
	parsed, err := ParseVersionIncrement(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ErrInvalidVersion indicates a string is not a well-formed version.
var ErrInvalidVersion = errors.New("invalid version")

var (
	prereleaseIdentifierPattern = regexp.MustCompile(`^[0-9A-Za-z-]+$`)
	metadataPattern             = regexp.MustCompile(`^[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*$`)
)

// SemanticVersion is an immutable dotted numeric version with optional
// prerelease identifiers and build metadata, e.g. "1.2.3-beta.1+g1234".
//
// The zero value is not a valid version; use ParseSemanticVersion.
// Two versions are exactly equal (metadata included) when == holds.
type SemanticVersion struct {
	numbers    [MaxVersionComponents]int
	count      int
	prerelease string
	metadata   string
}

// ParseSemanticVersion parses "Major.Minor[.Build[.Revision]][-prerelease][+metadata]".
func ParseSemanticVersion(s string) (SemanticVersion, error) {
	var v SemanticVersion
	text := strings.TrimSpace(s)
	if text == "" {
		return v, fmt.Errorf("%w: empty string", ErrInvalidVersion)
	}

	if i := strings.IndexByte(text, '+'); i >= 0 {
		v.metadata = text[i+1:]
		text = text[:i]
		if !metadataPattern.MatchString(v.metadata) {
			return SemanticVersion{}, fmt.Errorf("%w: bad build metadata in %q", ErrInvalidVersion, s)
		}
	}

	if i := strings.IndexByte(text, '-'); i >= 0 {
		v.prerelease = text[i+1:]
		text = text[:i]
		if v.prerelease == "" {
			return SemanticVersion{}, fmt.Errorf("%w: empty prerelease in %q", ErrInvalidVersion, s)
		}
		for _, id := range strings.Split(v.prerelease, ".") {
			if !prereleaseIdentifierPattern.MatchString(id) {
				return SemanticVersion{}, fmt.Errorf("%w: bad prerelease identifier %q in %q", ErrInvalidVersion, id, s)
			}
		}
	}

	parts := strings.Split(text, ".")
	if len(parts) < MinVersionComponents || len(parts) > MaxVersionComponents {
		return SemanticVersion{}, fmt.Errorf(
			"%w: %q must have %d to %d numeric components",
			ErrInvalidVersion, s, MinVersionComponents, MaxVersionComponents,
		)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return SemanticVersion{}, fmt.Errorf("%w: bad numeric component %q in %q", ErrInvalidVersion, p, s)
		}
		v.numbers[i] = n
	}
	v.count = len(parts)
	return v, nil
}

// MustParseSemanticVersion is like ParseSemanticVersion but panics on error.
func MustParseSemanticVersion(s string) SemanticVersion {
	v, err := ParseSemanticVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the zero value.
func (v SemanticVersion) IsZero() bool {
	return v.count == 0
}

// Components returns a copy of the numeric components.
func (v SemanticVersion) Components() []int {
	out := make([]int, v.count)
	copy(out, v.numbers[:v.count])
	return out
}

// Prerelease returns the prerelease identifiers without the leading hyphen.
func (v SemanticVersion) Prerelease() string {
	return v.prerelease
}

// PrereleaseIdentifiers returns the dot-separated prerelease identifiers.
func (v SemanticVersion) PrereleaseIdentifiers() []string {
	if v.prerelease == "" {
		return nil
	}
	return strings.Split(v.prerelease, ".")
}

// IsPrerelease reports whether v carries a prerelease tag.
func (v SemanticVersion) IsPrerelease() bool {
	return v.prerelease != ""
}

// Metadata returns the build metadata without the leading plus sign.
func (v SemanticVersion) Metadata() string {
	return v.metadata
}

// NumericString returns only the numeric components, e.g. "1.2.3".
func (v SemanticVersion) NumericString() string {
	parts := make([]string, v.count)
	for i := 0; i < v.count; i++ {
		parts[i] = strconv.Itoa(v.numbers[i])
	}
	return strings.Join(parts, ".")
}

// String returns the canonical textual form.
func (v SemanticVersion) String() string {
	var b strings.Builder
	b.WriteString(v.NumericString())
	if v.prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.prerelease)
	}
	if v.metadata != "" {
		b.WriteByte('+')
		b.WriteString(v.metadata)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v SemanticVersion) MarshalText() ([]byte, error) {
	if v.IsZero() {
		return nil, fmt.Errorf("%w: zero value", ErrInvalidVersion)
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *SemanticVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseSemanticVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Increment returns a copy with the component selected by inc advanced by one
// and every later component reset to zero. No components are added, so a
// build increment requires at least three.
func (v SemanticVersion) Increment(inc VersionIncrement) (SemanticVersion, error) {
	if inc < IncrementMajor || inc > IncrementBuild {
		return SemanticVersion{}, fmt.Errorf("%w: %d", ErrInvalidVersionIncrement, int(inc))
	}
	idx := inc.index()
	if idx >= v.count {
		return SemanticVersion{}, fmt.Errorf(
			"%w: %s increment requires at least %d version components but %s has %d",
			ErrInvalidVersionIncrement, inc, idx+1, v, v.count,
		)
	}

	out := v
	out.numbers[idx]++
	for i := idx + 1; i < out.count; i++ {
		out.numbers[i] = 0
	}
	return out, nil
}

// SetFirstPrereleaseTag returns a copy whose first prerelease identifier is
// replaced by tag. Later identifiers are kept. An empty tag removes the whole
// prerelease. A single leading hyphen on tag is ignored.
func (v SemanticVersion) SetFirstPrereleaseTag(tag string) SemanticVersion {
	tag = strings.TrimPrefix(tag, "-")
	if tag == "" {
		return v.WithoutPrereleaseTags()
	}

	out := v
	if i := strings.IndexByte(v.prerelease, '.'); i >= 0 {
		out.prerelease = tag + v.prerelease[i:]
	} else {
		out.prerelease = tag
	}
	return out
}

// WithoutPrereleaseTags returns a copy with no prerelease identifiers.
func (v SemanticVersion) WithoutPrereleaseTags() SemanticVersion {
	out := v
	out.prerelease = ""
	return out
}

// CompareNumeric compares only the numeric components. A version whose
// components are a strict prefix of the other's sorts first.
func (v SemanticVersion) CompareNumeric(other SemanticVersion) int {
	n := min(v.count, other.count)
	for i := 0; i < n; i++ {
		switch {
		case v.numbers[i] < other.numbers[i]:
			return -1
		case v.numbers[i] > other.numbers[i]:
			return 1
		}
	}
	switch {
	case v.count < other.count:
		return -1
	case v.count > other.count:
		return 1
	}
	return 0
}

// Compare orders versions by precedence: numerics first, then a prerelease
// sorts before the plain version, then prerelease identifiers pairwise.
// Build metadata does not take part.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	if c := v.CompareNumeric(other); c != 0 {
		return c
	}
	switch {
	case v.prerelease == other.prerelease:
		return 0
	case v.prerelease == "":
		return 1
	case other.prerelease == "":
		return -1
	}

	a, b := v.PrereleaseIdentifiers(), other.PrereleaseIdentifiers()
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareIdentifier(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// IsDecrement reports whether moving from oldVersion to newVersion goes
// backwards: lower numeric components, or the same numerics moving from a
// release to a prerelease.
func IsDecrement(oldVersion, newVersion SemanticVersion) bool {
	switch c := newVersion.CompareNumeric(oldVersion); {
	case c < 0:
		return true
	case c > 0:
		return false
	}
	return !oldVersion.IsPrerelease() && newVersion.IsPrerelease()
}

// ValidPrereleaseTag reports whether tag (with or without a leading hyphen)
// can be used with SetFirstPrereleaseTag. The empty tag is valid.
func ValidPrereleaseTag(tag string) bool {
	tag = strings.TrimPrefix(tag, "-")
	if tag == "" {
		return true
	}
	for _, id := range strings.Split(tag, ".") {
		if !prereleaseIdentifierPattern.MatchString(id) {
			return false
		}
	}
	return true
}
