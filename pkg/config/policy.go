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

package config

import (
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
)

// RepositoryPolicy is one repository entry in a policy file.
type RepositoryPolicy struct {
	Repository       string   `json:"repository"`
	AgeThresholdDays *int     `json:"ageThresholdDays,omitempty"`
	KeepFirstN       *int     `json:"keepFirstN,omitempty"`
	Environments     []string `json:"environments,omitempty"`
	ProtectReleases  bool     `json:"protectReleases,omitempty"`
}

// Policy is the top-level structure of a retention policy file, covering
// several repositories in one run.
type Policy struct {
	Repositories []RepositoryPolicy `json:"repositories"`

	fromFile string
}

func NewPolicyFromFile(fileName string) (*Policy, error) {
	r, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("error while opening %s: %v", fileName, err)
	}
	defer func() { _ = r.Close() }()
	return NewPolicy(r, fileName)
}

func NewPolicy(reader io.Reader, fromFile string) (*Policy, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error while reading %s: %v", fromFile, err)
	}
	policy := &Policy{fromFile: fromFile}
	err = yaml.Unmarshal(data, policy)
	if err != nil {
		return nil, fmt.Errorf("error while unmarshaling Policy from %s: %v", fromFile, err)
	}
	if errs := policy.sanityCheck(); errs != nil {
		return nil, NewAggregateError(errs)
	}
	return policy, nil
}

func (p *Policy) sanityCheck() []error {
	var issues []error
	if len(p.Repositories) == 0 {
		issues = append(issues, fmt.Errorf(`%s: no "repositories" found`, p.fromFile))
	}
	seenRepo := make(map[string]bool)
	for _, repo := range p.Repositories {
		if repo.Repository == "" {
			issues = append(issues, fmt.Errorf(`%s: repository entry without a "repository" name`, p.fromFile))
			continue
		}
		if _, seen := seenRepo[repo.Repository]; seen {
			issues = append(issues, fmt.Errorf(`duplicate repository: %q`, repo.Repository))
		}
		seenRepo[repo.Repository] = true
		if repo.AgeThresholdDays != nil && repo.KeepFirstN != nil {
			issues = append(issues, fmt.Errorf(`repository %q sets both ageThresholdDays and keepFirstN`, repo.Repository))
		}
		if repo.AgeThresholdDays == nil && repo.KeepFirstN == nil {
			issues = append(issues, fmt.Errorf(`repository %q sets neither ageThresholdDays nor keepFirstN`, repo.Repository))
		}
	}
	return issues
}

// Configs expands the policy into one Config per repository, carrying over
// the run-wide settings (dry-run, delay, concurrency) from base.
func (p *Policy) Configs(base *Config) ([]*Config, error) {
	configs := make([]*Config, 0, len(p.Repositories))
	for _, repo := range p.Repositories {
		cfg := &Config{
			Repository:       repo.Repository,
			DryRun:           base.DryRun,
			AgeThresholdDays: repo.AgeThresholdDays,
			FirstNThreshold:  repo.KeepFirstN,
			Environments:     repo.Environments,
			APIDelay:         base.APIDelay,
			Concurrency:      base.Concurrency,
			ProtectReleases:  repo.ProtectReleases,
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
