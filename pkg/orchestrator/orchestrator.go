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

// Package orchestrator resolves which image references are in use by active
// ECS task definitions.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kubecd/regprune/pkg/paginate"
	"github.com/kubecd/regprune/pkg/retain"
)

// ECSAPI is the subset of the ECS client the resolver needs.
type ECSAPI interface {
	ListTaskDefinitions(ctx context.Context, params *ecs.ListTaskDefinitionsInput, optFns ...func(*ecs.Options)) (*ecs.ListTaskDefinitionsOutput, error)
	DescribeTaskDefinition(ctx context.Context, params *ecs.DescribeTaskDefinitionInput, optFns ...func(*ecs.Options)) (*ecs.DescribeTaskDefinitionOutput, error)
}

// Client resolves active images from ECS. The delay is inserted after each
// describe call as rate-limit courtesy toward the ECS API; concurrency caps
// how many describes run at once.
type Client struct {
	api         ECSAPI
	delay       time.Duration
	concurrency int
}

func NewClient(api ECSAPI, delay time.Duration, concurrency int) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{api: api, delay: delay, concurrency: concurrency}
}

var _ retain.ActiveImageSource = (*Client)(nil)

// ActiveImages lists every ACTIVE task definition, describes each one and
// returns the deduplicated set of container image references. Presence in an
// ACTIVE definition is what counts; whether any task is scheduled does not.
func (c *Client) ActiveImages(ctx context.Context) (map[string]struct{}, error) {
	arns, err := paginate.All(ctx, func(ctx context.Context, token *string) (paginate.Page[string], error) {
		out, err := c.api.ListTaskDefinitions(ctx, &ecs.ListTaskDefinitionsInput{
			Status:    types.TaskDefinitionStatusActive,
			NextToken: token,
		})
		if err != nil {
			return paginate.Page[string]{}, errors.Wrap(err, "listing active task definitions")
		}
		return paginate.Page[string]{Items: out.TaskDefinitionArns, NextToken: out.NextToken}, nil
	})
	if err != nil {
		return nil, err
	}
	imagesPerDefinition := make([][]string, len(arns))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)
	for i, arn := range arns {
		i, arn := i, arn
		group.Go(func() error {
			images, err := c.describeImages(groupCtx, arn)
			if err != nil {
				return err
			}
			imagesPerDefinition[i] = images
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	active := make(map[string]struct{})
	for _, images := range imagesPerDefinition {
		for _, image := range images {
			active[image] = struct{}{}
			active[shortImageRef(image)] = struct{}{}
		}
	}
	return active, nil
}

// shortImageRef strips the registry host from a container image reference.
// Task definitions name images by full registry URI
// ("123456789012.dkr.ecr.us-east-1.amazonaws.com/repo:tag") while deletion
// candidates are built from the bare repository name ("repo:tag"); indexing
// both forms lets the exclusion filter match either.
func shortImageRef(image string) string {
	parts := strings.Split(image, "/")
	if len(parts) > 1 && strings.IndexByte(parts[0], '.') != -1 {
		return strings.Join(parts[1:], "/")
	}
	return image
}

func (c *Client) describeImages(ctx context.Context, arn string) ([]string, error) {
	out, err := c.api.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{
		TaskDefinition: aws.String(arn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "describing task definition %q", arn)
	}
	var images []string
	if out.TaskDefinition != nil {
		for _, container := range out.TaskDefinition.ContainerDefinitions {
			if container.Image != nil {
				images = append(images, *container.Image)
			}
		}
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return images, nil
}
