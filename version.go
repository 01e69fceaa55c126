package netlogolink

import (
	"fmt"
	"regexp"
	"strings"
)

// Version represents a semantic version with major, minor, and patch components.
// Minor and Patch may be -1 if not specified (e.g., "17" parses as {17, -1, -1}).
type Version struct {
	// Major is the major version number (required).
	Major int

	// Minor is the minor version number (-1 if not specified).
	Minor int

	// Patch is the patch version number (-1 if not specified).
	Patch int
}

// ParseVersion parses a version string into a Version struct.
// Accepts formats: "X.Y.Z", "X.Y", or "X". Any trailing text is ignored.
//
// Examples:
//   - "6.4.0" -> {6, 4, 0}
//   - "1.8.0_292" -> {1, 8, 0}
//   - "17" -> {17, -1, -1}
func ParseVersion(versionStr string) (Version, error) {
	version := Version{
		Minor: -1,
		Patch: -1,
	}
	_, err := fmt.Sscanf(versionStr, "%d.%d.%d", &version.Major, &version.Minor, &version.Patch)
	if err != nil {
		version.Minor, version.Patch = -1, -1
		_, err = fmt.Sscanf(versionStr, "%d.%d", &version.Major, &version.Minor)
		if err != nil {
			version.Minor = -1
			_, err = fmt.Sscanf(versionStr, "%d", &version.Major)
			if err != nil {
				return Version{}, fmt.Errorf("error parsing version: %v", err)
			}
		}
	}
	if version.Major < 0 || version.Minor < -1 || version.Patch < -1 {
		return Version{}, fmt.Errorf("invalid version: %s", versionStr)
	}
	return version, nil
}

var javaVersionPattern = regexp.MustCompile(`version "([^"]+)"`)

// ParseJavaVersion parses the banner printed by "java -version", e.g.
// `openjdk version "17.0.2" 2022-01-18` or `java version "1.8.0_292"`.
// Only the first line carrying a quoted version is considered.
func ParseJavaVersion(output string) (Version, error) {
	m := javaVersionPattern.FindStringSubmatch(output)
	if m == nil {
		return Version{}, fmt.Errorf("invalid java version output: %s", strings.TrimSpace(firstLine(output)))
	}
	return ParseVersion(m[1])
}

var netlogoVersionPattern = regexp.MustCompile(`(\d+(?:\.\d+){0,2})`)

// ParseNetLogoVersion extracts the engine version from an install directory
// or archive name such as "NetLogo 6.4.0" or "netlogo-6.4.0.jar".
func ParseNetLogoVersion(name string) (Version, error) {
	m := netlogoVersionPattern.FindString(name)
	if m == "" {
		return Version{}, fmt.Errorf("no version in %q", name)
	}
	return ParseVersion(m)
}

// Feature returns the Java feature release. Pre-9 runtimes report
// "1.x" so the minor component is the feature number there.
func (v *Version) Feature() int {
	if v.Major == 1 && v.Minor > 0 {
		return v.Minor
	}
	return v.Major
}

// Compare returns -1 if v < other, 0 if v == other, or 1 if v > other.
// Comparison is done component by component (major, then minor, then patch).
func (v *Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return sign(v.Major - other.Major)
	case v.Minor != other.Minor:
		return sign(v.Minor - other.Minor)
	default:
		return sign(v.Patch - other.Patch)
	}
}

// String returns the version as a string, omitting unspecified components.
func (v *Version) String() string {
	if v.Patch != -1 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != -1 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d", v.Major)
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
