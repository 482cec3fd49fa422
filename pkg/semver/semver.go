package semver

import (
	mmsemver "github.com/Masterminds/semver"
)

// Normalize strips a leading "v" so that tags like "v1.2.3" parse.
func Normalize(version string) string {
	if len(version) > 0 && version[0] == 'v' {
		return version[1:]
	}
	return version
}

func Parse(version string) (*mmsemver.Version, error) {
	return mmsemver.NewVersion(Normalize(version))
}

// IsRelease reports whether a tag names a semantic version, which the
// retention filters treat as a released build worth protecting.
func IsRelease(tag string) bool {
	_, err := Parse(tag)
	return err == nil
}
