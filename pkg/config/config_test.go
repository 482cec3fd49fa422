package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper(t *testing.T) {
	v := viper.New()
	v.Set("repo_to_clean", "my-service")
	v.Set("dry_run", true)
	v.Set("repo_age_threshold", 90)
	v.Set("envs", []string{"dev", "staging", "prod"})
	v.Set("api_delay", 250)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "my-service", cfg.Repository)
	assert.True(t, cfg.DryRun)
	require.NotNil(t, cfg.AgeThresholdDays)
	assert.Equal(t, 90, *cfg.AgeThresholdDays)
	assert.Nil(t, cfg.FirstNThreshold)
	assert.Equal(t, []string{"dev", "staging", "prod"}, cfg.Environments)
	assert.Equal(t, 250*time.Millisecond, cfg.APIDelay)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
}

func TestFromViperMissingRepository(t *testing.T) {
	v := viper.New()
	v.Set("repo_age_threshold", 30)
	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPO_TO_CLEAN")
}

func TestFromViperBothThresholds(t *testing.T) {
	v := viper.New()
	v.Set("repo_to_clean", "my-service")
	v.Set("repo_age_threshold", 30)
	v.Set("repo_first_n_threshold", 5)
	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestFromViperNeitherThreshold(t *testing.T) {
	v := viper.New()
	v.Set("repo_to_clean", "my-service")
	_, err := FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one of")
}

func TestNewPolicy(t *testing.T) {
	doc := `
repositories:
  - repository: backend
    ageThresholdDays: 60
  - repository: frontend
    keepFirstN: 10
    environments: [dev, prod]
    protectReleases: true
`
	policy, err := NewPolicy(strings.NewReader(doc), "policy.yaml")
	require.NoError(t, err)
	require.Len(t, policy.Repositories, 2)

	base := &Config{DryRun: true, APIDelay: 100 * time.Millisecond, Concurrency: 4}
	configs, err := policy.Configs(base)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "backend", configs[0].Repository)
	require.NotNil(t, configs[0].AgeThresholdDays)
	assert.Equal(t, 60, *configs[0].AgeThresholdDays)
	assert.True(t, configs[0].DryRun)
	assert.Equal(t, 4, configs[0].Concurrency)

	assert.Equal(t, "frontend", configs[1].Repository)
	require.NotNil(t, configs[1].FirstNThreshold)
	assert.Equal(t, 10, *configs[1].FirstNThreshold)
	assert.Equal(t, []string{"dev", "prod"}, configs[1].Environments)
	assert.True(t, configs[1].ProtectReleases)
}

func TestNewPolicySanityCheck(t *testing.T) {
	type testCase struct {
		name     string
		doc      string
		expected string
	}
	for _, tc := range []testCase{
		{
			name:     "empty",
			doc:      `repositories: []`,
			expected: `no "repositories" found`,
		},
		{
			name: "duplicate",
			doc: `
repositories:
  - {repository: backend, ageThresholdDays: 60}
  - {repository: backend, keepFirstN: 5}
`,
			expected: `duplicate repository`,
		},
		{
			name: "both thresholds",
			doc: `
repositories:
  - {repository: backend, ageThresholdDays: 60, keepFirstN: 5}
`,
			expected: `both ageThresholdDays and keepFirstN`,
		},
		{
			name: "no thresholds",
			doc: `
repositories:
  - {repository: backend}
`,
			expected: `neither ageThresholdDays nor keepFirstN`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPolicy(strings.NewReader(tc.doc), "policy.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}
