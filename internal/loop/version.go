package loop

import (
	"strconv"
	"strings"
)

// goVersionAtLeast reports whether version (runtime.Version form, e.g.
// "go1.21.3") is at least major.minor. Development builds and versions
// that do not parse are treated as at least any released version.
func goVersionAtLeast(version string, major, minor int) bool {
	v, ok := strings.CutPrefix(version, "go")
	if !ok {
		// "devel +abc123" and similar toolchain builds.
		return true
	}

	parts := strings.SplitN(v, ".", 3)
	maj, ok := leadingInt(parts[0])
	if !ok {
		return true
	}
	if maj != major {
		return maj > major
	}
	if len(parts) < 2 {
		return minor <= 0
	}
	min, ok := leadingInt(parts[1])
	if !ok {
		return true
	}
	return min >= minor
}

// leadingInt parses the leading decimal digits of s, so "21rc1" reads as 21.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
