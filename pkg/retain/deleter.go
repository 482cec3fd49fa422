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

	"golang.org/x/sync/errgroup"
)

// BatchCap is the maximum number of image identifiers the registry's batch
// delete call accepts.
const BatchCap = 99

// ImageDeleter issues one batch deletion of the given tags and reports the
// per-image results.
type ImageDeleter interface {
	DeleteTags(ctx context.Context, tags []string) (Outcome, error)
}

// BatchDeleter splits a candidate list into BatchCap-sized batches and
// deletes them concurrently, bounded by Concurrency.
type BatchDeleter struct {
	Deleter     ImageDeleter
	DryRun      bool
	Concurrency int
}

// DeleteAll deletes every tag named by imageURLs. In dry-run mode, or when
// no candidate carries a tag, it returns a zero Outcome without issuing any
// delete call. Per-batch outcomes are merged in batch order, so the result
// is deterministic for a fixed input.
func (d *BatchDeleter) DeleteAll(ctx context.Context, imageURLs []string) (Outcome, error) {
	tags := make([]string, 0, len(imageURLs))
	for _, url := range imageURLs {
		if tag := TagFromURL(url); tag != "" {
			tags = append(tags, tag)
		}
	}
	if d.DryRun || len(tags) == 0 {
		return Outcome{}, nil
	}
	batches := chunk(tags, BatchCap)
	outcomes := make([]Outcome, len(batches))
	group, groupCtx := errgroup.WithContext(ctx)
	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}
	group.SetLimit(limit)
	for i, batch := range batches {
		i, batch := i, batch
		group.Go(func() error {
			outcome, err := d.Deleter.DeleteTags(groupCtx, batch)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Outcome{}, err
	}
	var total Outcome
	for _, outcome := range outcomes {
		total = total.Merge(outcome)
	}
	return total, nil
}

func chunk(items []string, size int) [][]string {
	batches := make([][]string, 0, (len(items)+size-1)/size)
	for size < len(items) {
		batches = append(batches, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		batches = append(batches, items)
	}
	return batches
}
