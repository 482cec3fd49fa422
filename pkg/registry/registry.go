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

// Package registry adapts the ECR API to the retention pipeline.
package registry

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/pkg/errors"

	"github.com/kubecd/regprune/pkg/paginate"
	"github.com/kubecd/regprune/pkg/retain"
)

// DescribeImages accepts at most 100 image identifiers per call.
const describeBatchSize = 100

// ECRAPI is the subset of the ECR client the retention pipeline needs.
type ECRAPI interface {
	ListImages(ctx context.Context, params *ecr.ListImagesInput, optFns ...func(*ecr.Options)) (*ecr.ListImagesOutput, error)
	DescribeImages(ctx context.Context, params *ecr.DescribeImagesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error)
	BatchDeleteImage(ctx context.Context, params *ecr.BatchDeleteImageInput, optFns ...func(*ecr.Options)) (*ecr.BatchDeleteImageOutput, error)
}

// Client exposes one ECR repository as the pipeline's image source and
// deleter.
type Client struct {
	api        ECRAPI
	repository string
}

func NewClient(api ECRAPI, repository string) *Client {
	return &Client{api: api, repository: repository}
}

var _ retain.ImageSource = (*Client)(nil)
var _ retain.ImageDeleter = (*Client)(nil)

// ListImages returns details for every image in the repository, draining
// both the identifier listing and the describe calls page by page.
func (c *Client) ListImages(ctx context.Context) ([]retain.Image, error) {
	imageIDs, err := paginate.All(ctx, func(ctx context.Context, token *string) (paginate.Page[types.ImageIdentifier], error) {
		out, err := c.api.ListImages(ctx, &ecr.ListImagesInput{
			RepositoryName: aws.String(c.repository),
			NextToken:      token,
		})
		if err != nil {
			return paginate.Page[types.ImageIdentifier]{}, errors.Wrapf(err, "listing images in %q", c.repository)
		}
		return paginate.Page[types.ImageIdentifier]{Items: out.ImageIds, NextToken: out.NextToken}, nil
	})
	if err != nil {
		return nil, err
	}
	images := make([]retain.Image, 0, len(imageIDs))
	for start := 0; start < len(imageIDs); start += describeBatchSize {
		end := min(start+describeBatchSize, len(imageIDs))
		details, err := c.describeImages(ctx, imageIDs[start:end])
		if err != nil {
			return nil, err
		}
		images = append(images, details...)
	}
	return images, nil
}

func (c *Client) describeImages(ctx context.Context, imageIDs []types.ImageIdentifier) ([]retain.Image, error) {
	details, err := paginate.All(ctx, func(ctx context.Context, token *string) (paginate.Page[types.ImageDetail], error) {
		out, err := c.api.DescribeImages(ctx, &ecr.DescribeImagesInput{
			RepositoryName: aws.String(c.repository),
			ImageIds:       imageIDs,
			NextToken:      token,
		})
		if err != nil {
			return paginate.Page[types.ImageDetail]{}, errors.Wrapf(err, "describing images in %q", c.repository)
		}
		return paginate.Page[types.ImageDetail]{Items: out.ImageDetails, NextToken: out.NextToken}, nil
	})
	if err != nil {
		return nil, err
	}
	images := make([]retain.Image, 0, len(details))
	for _, detail := range details {
		img := retain.Image{
			Digest: aws.ToString(detail.ImageDigest),
			Tags:   detail.ImageTags,
		}
		if detail.ImagePushedAt != nil {
			pushedAt := detail.ImagePushedAt.Unix()
			img.PushedAt = &pushedAt
		}
		images = append(images, img)
	}
	return images, nil
}

// DeleteTags issues one batch delete for the given tags and maps the
// response into an Outcome. Per-image failures reported by ECR become
// Outcome entries, not errors.
func (c *Client) DeleteTags(ctx context.Context, tags []string) (retain.Outcome, error) {
	imageIDs := make([]types.ImageIdentifier, 0, len(tags))
	for _, tag := range tags {
		imageIDs = append(imageIDs, types.ImageIdentifier{ImageTag: aws.String(tag)})
	}
	out, err := c.api.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: aws.String(c.repository),
		ImageIds:       imageIDs,
	})
	if err != nil {
		return retain.Outcome{}, errors.Wrapf(err, "batch deleting %d images from %q", len(tags), c.repository)
	}
	outcome := retain.Outcome{Count: len(out.ImageIds)}
	for _, id := range out.ImageIds {
		outcome.Deleted = append(outcome.Deleted, c.imageRef(&id))
	}
	for _, failure := range out.Failures {
		reason := string(failure.FailureCode)
		if failure.FailureReason != nil {
			reason = *failure.FailureReason
		}
		outcome.Failures = append(outcome.Failures, retain.Failure{
			ImageRef: c.imageRef(failure.ImageId),
			Reason:   reason,
		})
	}
	return outcome, nil
}

func (c *Client) imageRef(id *types.ImageIdentifier) string {
	if id == nil {
		return c.repository
	}
	if id.ImageTag != nil {
		return retain.ImageURL(c.repository, *id.ImageTag)
	}
	return aws.ToString(id.ImageDigest)
}
