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

// Package retain decides which images in a repository are eligible for
// deletion and removes them in batches.
package retain

import "strings"

// Image is one pushed image as seen by the retention filters: its digest,
// every tag pointing at it (ordered as the registry reports them) and the
// push timestamp, which untagged or partially-synced images may lack.
type Image struct {
	Digest   string
	Tags     []string
	PushedAt *int64 // Unix seconds; nil when the registry reports none
}

// PrimaryTag returns the first tag, or "" for untagged images.
func (i Image) PrimaryTag() string {
	if len(i.Tags) == 0 {
		return ""
	}
	return i.Tags[0]
}

// ImageURL builds the full repository URL for one tag.
func ImageURL(repository, tag string) string {
	return repository + ":" + tag
}

// TagFromURL returns the tag portion of a repository:tag URL, or "" when the
// URL carries no tag.
func TagFromURL(url string) string {
	if i := strings.IndexByte(url, ':'); i != -1 {
		return url[i+1:]
	}
	return ""
}
