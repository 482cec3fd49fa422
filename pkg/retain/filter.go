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
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kubecd/regprune/pkg/semver"
)

const secondsPerDay = 24 * 60 * 60

// FilterImagesByDateThreshold selects every image pushed at least
// thresholdDays before now, except images without a push timestamp and
// images whose primary tag is "latest". A nil threshold disables the filter.
// Returned entries are full repository URLs.
func FilterImagesByDateThreshold(images []Image, repository string, thresholdDays *int, now time.Time) []string {
	eligible := make([]string, 0)
	if thresholdDays == nil {
		return eligible
	}
	for _, img := range images {
		if img.PushedAt == nil {
			continue
		}
		tag := img.PrimaryTag()
		if tag == "latest" {
			continue
		}
		ageDays := float64(now.Unix()-*img.PushedAt) / secondsPerDay
		if ageDays >= float64(*thresholdDays) {
			eligible = append(eligible, ImageURL(repository, tag))
		}
	}
	return eligible
}

// FilterImagesByFirstN groups images by environment label and selects all but
// the firstN most recently pushed images of each group. A tag belongs to the
// first configured label it contains as a substring; unmatched tags form
// singleton groups keyed by the tag itself. Images without a push timestamp
// sort earliest. A nil threshold disables the filter.
func FilterImagesByFirstN(images []Image, repository string, firstN *int, environments []string) []string {
	eligible := make([]string, 0)
	if firstN == nil {
		return eligible
	}
	type taggedCreation struct {
		created int64
		tag     string
	}
	// groupOrder keeps flattening deterministic: groups emit in first-seen
	// order, never in map iteration order.
	groupOrder := make([]string, 0)
	groups := make(map[string][]taggedCreation)
	for _, img := range images {
		tag := img.PrimaryTag()
		created := int64(math.MinInt64)
		if img.PushedAt != nil {
			created = *img.PushedAt
		}
		key := tag
		for _, env := range environments {
			if strings.Contains(tag, env) {
				key = env
				break
			}
		}
		if _, found := groups[key]; !found {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], taggedCreation{created: created, tag: tag})
	}
	for _, key := range groupOrder {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].created != group[j].created {
				return group[i].created < group[j].created
			}
			return group[i].tag < group[j].tag
		})
		keep := len(group) - *firstN
		for _, entry := range group[:max(keep, 0)] {
			eligible = append(eligible, ImageURL(repository, entry.tag))
		}
	}
	return eligible
}

// FilterOutActiveImages removes every candidate present in the active set,
// preserving candidate order.
func FilterOutActiveImages(candidates []string, active map[string]struct{}) []string {
	result := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if _, found := active[candidate]; found {
			continue
		}
		result = append(result, candidate)
	}
	return result
}

// FilterOutReleaseTags removes candidates whose tag parses as a semantic
// version, so that released builds survive regardless of age.
func FilterOutReleaseTags(candidates []string) []string {
	result := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if semver.IsRelease(TagFromURL(candidate)) {
			continue
		}
		result = append(result, candidate)
	}
	return result
}
