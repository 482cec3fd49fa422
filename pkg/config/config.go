/*
 * Copyright 2024 Zedge, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package config holds the immutable per-run settings for the retention
// pipeline. All environment lookups happen here, before any API call; the
// filtering and deletion code only ever sees a Config value.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const DefaultConcurrency = 8

type Config struct {
	// Repository is the name of the registry repository to clean.
	Repository string
	// DryRun makes the pipeline report what it would delete without
	// issuing any delete call.
	DryRun bool
	// AgeThresholdDays enables the age-based retention filter when set:
	// images pushed at least this many days ago become deletion candidates.
	AgeThresholdDays *int
	// FirstNThreshold enables the count-based retention filter when set:
	// the newest N images per environment group survive.
	FirstNThreshold *int
	// Environments are the labels used to group tags for first-N
	// retention, matched as substrings in configured order.
	Environments []string
	// APIDelay is inserted after each task-definition describe call.
	APIDelay time.Duration
	// Concurrency caps the fan-out of describe and batch-delete calls.
	Concurrency int
	// ProtectReleases shields tags that parse as semantic versions.
	ProtectReleases bool
}

// FromViper builds a Config from the given viper instance, which is expected
// to have AutomaticEnv enabled so that REPO_TO_CLEAN, DRY_RUN,
// REPO_AGE_THRESHOLD, REPO_FIRST_N_THRESHOLD, ENVS, API_DELAY, CONCURRENCY
// and PROTECT_RELEASES all resolve. It fails fast on invalid settings.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Repository:      v.GetString("repo_to_clean"),
		DryRun:          v.GetBool("dry_run"),
		Environments:    v.GetStringSlice("envs"),
		APIDelay:        time.Duration(v.GetInt("api_delay")) * time.Millisecond,
		Concurrency:     v.GetInt("concurrency"),
		ProtectReleases: v.GetBool("protect_releases"),
	}
	if v.IsSet("repo_age_threshold") {
		age := v.GetInt("repo_age_threshold")
		cfg.AgeThresholdDays = &age
	}
	if v.IsSet("repo_first_n_threshold") {
		firstN := v.GetInt("repo_first_n_threshold")
		cfg.FirstNThreshold = &firstN
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if errs := cfg.sanityCheck(); errs != nil {
		return nil, NewAggregateError(errs)
	}
	return cfg, nil
}

func (c *Config) sanityCheck() []error {
	var issues []error
	if c.Repository == "" {
		issues = append(issues, fmt.Errorf("REPO_TO_CLEAN must be set"))
	}
	if c.AgeThresholdDays != nil && c.FirstNThreshold != nil {
		issues = append(issues, fmt.Errorf("REPO_AGE_THRESHOLD and REPO_FIRST_N_THRESHOLD are mutually exclusive"))
	}
	if c.AgeThresholdDays == nil && c.FirstNThreshold == nil {
		issues = append(issues, fmt.Errorf("one of REPO_AGE_THRESHOLD or REPO_FIRST_N_THRESHOLD must be set"))
	}
	if c.AgeThresholdDays != nil && *c.AgeThresholdDays < 0 {
		issues = append(issues, fmt.Errorf("REPO_AGE_THRESHOLD must not be negative, got %d", *c.AgeThresholdDays))
	}
	if c.FirstNThreshold != nil && *c.FirstNThreshold < 0 {
		issues = append(issues, fmt.Errorf("REPO_FIRST_N_THRESHOLD must not be negative, got %d", *c.FirstNThreshold))
	}
	if c.APIDelay < 0 {
		issues = append(issues, fmt.Errorf("API_DELAY must not be negative, got %s", c.APIDelay))
	}
	if c.Concurrency < 1 {
		issues = append(issues, fmt.Errorf("CONCURRENCY must be at least 1, got %d", c.Concurrency))
	}
	return issues
}

// RunDefaultsFromViper reads only the run-wide settings, for policy-file
// invocations where the per-repository settings come from the policy instead
// of the environment.
func RunDefaultsFromViper(v *viper.Viper) *Config {
	cfg := &Config{
		DryRun:      v.GetBool("dry_run"),
		APIDelay:    time.Duration(v.GetInt("api_delay")) * time.Millisecond,
		Concurrency: v.GetInt("concurrency"),
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return cfg
}

// Validate re-checks an assembled Config, for callers that build one by hand
// (for instance from a policy file) instead of through FromViper.
func (c *Config) Validate() error {
	if errs := c.sanityCheck(); errs != nil {
		return NewAggregateError(errs)
	}
	return nil
}
