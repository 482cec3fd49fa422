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

package retain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kubecd/regprune/pkg/config"
)

// ImageSource lists every image in the repository under cleaning.
type ImageSource interface {
	ListImages(ctx context.Context) ([]Image, error)
}

// ActiveImageSource resolves the set of image references currently named by
// active deployment definitions.
type ActiveImageSource interface {
	ActiveImages(ctx context.Context) (map[string]struct{}, error)
}

// Pipeline wires the retention stages together: list, filter, subtract
// active images, delete. Exactly one of the two retention filters runs per
// invocation, chosen by which threshold the Config sets.
type Pipeline struct {
	Config  *config.Config
	Images  ImageSource
	Active  ActiveImageSource
	Deleter ImageDeleter
	// Now is the clock for the age filter; defaults to time.Now.
	Now func() time.Time
}

// Plan computes the final eligible-for-deletion list without deleting
// anything.
func (p *Pipeline) Plan(ctx context.Context) ([]string, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	images, err := p.Images.ListImages(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "listing images in repository %q", p.Config.Repository)
	}
	var candidates []string
	if p.Config.AgeThresholdDays != nil {
		candidates = FilterImagesByDateThreshold(images, p.Config.Repository, p.Config.AgeThresholdDays, p.now())
	} else {
		candidates = FilterImagesByFirstN(images, p.Config.Repository, p.Config.FirstNThreshold, p.Config.Environments)
	}
	if len(candidates) == 0 {
		return candidates, nil
	}
	active, err := p.Active.ActiveImages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "resolving active images")
	}
	candidates = FilterOutActiveImages(candidates, active)
	if p.Config.ProtectReleases {
		candidates = FilterOutReleaseTags(candidates)
	}
	return candidates, nil
}

// Run plans and then deletes, returning the aggregate outcome. In dry-run
// mode no delete call is issued and the outcome is zero; use Plan to see
// what a real run would remove.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	candidates, err := p.Plan(ctx)
	if err != nil {
		return Outcome{}, err
	}
	deleter := &BatchDeleter{
		Deleter:     p.Deleter,
		DryRun:      p.Config.DryRun,
		Concurrency: p.Config.Concurrency,
	}
	return deleter.DeleteAll(ctx, candidates)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
