package retain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var filterNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func pushedDaysAgo(days int) *int64 {
	ts := filterNow.AddDate(0, 0, -days).Unix()
	return &ts
}

func intPtr(n int) *int {
	return &n
}

func TestFilterImagesByDateThreshold(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"v1"}, PushedAt: pushedDaysAgo(200)},
		{Digest: "sha256:b", Tags: []string{"v2"}, PushedAt: pushedDaysAgo(10)},
		{Digest: "sha256:c", Tags: []string{"latest"}, PushedAt: pushedDaysAgo(300)},
	}
	eligible := FilterImagesByDateThreshold(images, "repo", intPtr(90), filterNow)
	assert.Equal(t, []string{"repo:v1"}, eligible)
}

func TestFilterImagesByDateThresholdDisabled(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"v1"}, PushedAt: pushedDaysAgo(200)},
	}
	assert.Empty(t, FilterImagesByDateThreshold(images, "repo", nil, filterNow))
}

func TestFilterImagesByDateThresholdMissingTimestamp(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"ancient"}},
	}
	assert.Empty(t, FilterImagesByDateThreshold(images, "repo", intPtr(1), filterNow))
}

func TestFilterImagesByDateThresholdExactBoundary(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"v1"}, PushedAt: pushedDaysAgo(90)},
	}
	assert.Equal(t, []string{"repo:v1"}, FilterImagesByDateThreshold(images, "repo", intPtr(90), filterNow))
}

func TestFilterImagesByDateThresholdIdempotent(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"v1"}, PushedAt: pushedDaysAgo(200)},
		{Digest: "sha256:b", Tags: []string{"v2"}, PushedAt: pushedDaysAgo(150)},
	}
	first := FilterImagesByDateThreshold(images, "repo", intPtr(90), filterNow)
	second := FilterImagesByDateThreshold(images, "repo", intPtr(90), filterNow)
	assert.Equal(t, first, second)
}

func TestFilterImagesByFirstN(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"prod-1"}, PushedAt: pushedDaysAgo(3)},
		{Digest: "sha256:b", Tags: []string{"prod-2"}, PushedAt: pushedDaysAgo(2)},
		{Digest: "sha256:c", Tags: []string{"prod-3"}, PushedAt: pushedDaysAgo(1)},
	}
	eligible := FilterImagesByFirstN(images, "repo", intPtr(2), []string{"prod"})
	assert.Equal(t, []string{"repo:prod-1"}, eligible)
}

func TestFilterImagesByFirstNDisabled(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"prod-1"}, PushedAt: pushedDaysAgo(3)},
	}
	assert.Empty(t, FilterImagesByFirstN(images, "repo", nil, []string{"prod"}))
}

func TestFilterImagesByFirstNKeepsNewestPerGroup(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"dev-10"}, PushedAt: pushedDaysAgo(50)},
		{Digest: "sha256:b", Tags: []string{"prod-1"}, PushedAt: pushedDaysAgo(40)},
		{Digest: "sha256:c", Tags: []string{"dev-11"}, PushedAt: pushedDaysAgo(30)},
		{Digest: "sha256:d", Tags: []string{"prod-2"}, PushedAt: pushedDaysAgo(20)},
		{Digest: "sha256:e", Tags: []string{"dev-12"}, PushedAt: pushedDaysAgo(10)},
	}
	eligible := FilterImagesByFirstN(images, "repo", intPtr(1), []string{"dev", "prod"})
	// Oldest K-N of each group, groups in first-seen order.
	assert.Equal(t, []string{"repo:dev-10", "repo:dev-11", "repo:prod-1"}, eligible)
}

func TestFilterImagesByFirstNUnmatchedTagsFormSingletonGroups(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"oddball"}, PushedAt: pushedDaysAgo(100)},
		{Digest: "sha256:b", Tags: []string{"prod-1"}, PushedAt: pushedDaysAgo(40)},
		{Digest: "sha256:c", Tags: []string{"prod-2"}, PushedAt: pushedDaysAgo(20)},
	}
	// A singleton group of size 1 never exceeds N=1, so "oddball" survives.
	eligible := FilterImagesByFirstN(images, "repo", intPtr(1), []string{"prod"})
	assert.Equal(t, []string{"repo:prod-1"}, eligible)
}

func TestFilterImagesByFirstNMissingTimestampSortsEarliest(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"prod-new"}, PushedAt: pushedDaysAgo(1)},
		{Digest: "sha256:b", Tags: []string{"prod-unknown"}},
	}
	eligible := FilterImagesByFirstN(images, "repo", intPtr(1), []string{"prod"})
	assert.Equal(t, []string{"repo:prod-unknown"}, eligible)
}

func TestFilterImagesByFirstNGroupSmallerThanThreshold(t *testing.T) {
	images := []Image{
		{Digest: "sha256:a", Tags: []string{"prod-1"}, PushedAt: pushedDaysAgo(1)},
	}
	assert.Empty(t, FilterImagesByFirstN(images, "repo", intPtr(5), []string{"prod"}))
}

func TestFilterOutActiveImages(t *testing.T) {
	candidates := []string{"repo:a", "repo:b"}
	active := map[string]struct{}{"repo:a": {}}
	assert.Equal(t, []string{"repo:b"}, FilterOutActiveImages(candidates, active))
}

func TestFilterOutActiveImagesPreservesOrder(t *testing.T) {
	candidates := []string{"repo:c", "repo:a", "repo:b"}
	active := map[string]struct{}{"repo:a": {}}
	result := FilterOutActiveImages(candidates, active)
	assert.Equal(t, []string{"repo:c", "repo:b"}, result)
	assert.Equal(t, result, FilterOutActiveImages(result, active))
}

func TestFilterOutReleaseTags(t *testing.T) {
	candidates := []string{"repo:1.2.3", "repo:prod-17", "repo:v2.0.0", "repo:nightly"}
	assert.Equal(t, []string{"repo:prod-17", "repo:nightly"}, FilterOutReleaseTags(candidates))
}

func TestTagFromURL(t *testing.T) {
	assert.Equal(t, "v1", TagFromURL("repo:v1"))
	assert.Equal(t, "", TagFromURL("repo"))
	assert.Equal(t, "", TagFromURL("repo:"))
}

func TestPrimaryTag(t *testing.T) {
	assert.Equal(t, "v1", Image{Tags: []string{"v1", "stable"}}.PrimaryTag())
	assert.Equal(t, "", Image{}.PrimaryTag())
}
