package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRelease(t *testing.T) {
	type testCase struct {
		tag      string
		expected bool
	}
	for _, tc := range []testCase{
		{"1.2.3", true},
		{"v1.2.3", true},
		{"1.0", true},
		{"latest", false},
		{"prod-42", false},
		{"", false},
		{"2024-06-01-build", false},
	} {
		t.Run(tc.tag, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsRelease(tc.tag))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "1.2.3", Normalize("v1.2.3"))
	assert.Equal(t, "1.2.3", Normalize("1.2.3"))
	assert.Equal(t, "", Normalize(""))
}
