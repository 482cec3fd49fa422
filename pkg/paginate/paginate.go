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

// Package paginate drains cursor-based listing APIs into plain slices.
package paginate

import "context"

// Page is one response from a cursor-based listing call. A nil NextToken
// marks the final page.
type Page[T any] struct {
	Items     []T
	NextToken *string
}

// PageFunc fetches a single page. A nil token requests the first page.
type PageFunc[T any] func(ctx context.Context, token *string) (Page[T], error)

// All repeatedly invokes fn, feeding each response's NextToken into the next
// call, and returns the ordered concatenation of every page's items. The
// first page error aborts the listing with no partial result.
func All[T any](ctx context.Context, fn PageFunc[T]) ([]T, error) {
	items := make([]T, 0)
	var token *string
	for {
		page, err := fn(ctx, token)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if page.NextToken == nil {
			return items, nil
		}
		token = page.NextToken
	}
}
