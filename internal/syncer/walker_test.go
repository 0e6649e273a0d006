package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgaskin/cardvault/internal/scrydex"
)

func testWalkConfig() WalkConfig {
	return WalkConfig{
		StartPage:     1,
		PageSize:      10,
		FailureBudget: 3,
	}
}

// pageOf returns n fake records for a page.
func pageOf(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = "item"
	}
	return items
}

func TestWalkStopsOnEmptyPage(t *testing.T) {
	fetched := 0
	result, err := WalkPages(context.Background(), testWalkConfig(), zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			fetched++
			if page <= 3 {
				return pageOf(pageSize), nil
			}
			return nil, nil
		},
		func(page int, items []string) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	assert.Equal(t, 4, fetched)
	assert.Equal(t, 4, result.LastPage)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 30, result.Items)
}

func TestWalkStopsOnShortPage(t *testing.T) {
	result, err := WalkPages(context.Background(), testWalkConfig(), zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			if page == 1 {
				return pageOf(pageSize), nil
			}
			return pageOf(3), nil
		},
		func(page int, items []string) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	assert.Equal(t, 13, result.Items)
	assert.Equal(t, 2, result.LastPage)
}

func TestWalkStopsAtMaxPages(t *testing.T) {
	cfg := testWalkConfig()
	cfg.MaxPages = 2

	result, err := WalkPages(context.Background(), cfg, zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			return pageOf(pageSize), nil
		},
		func(page int, items []string) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, StopMaxPages, result.Reason)
	assert.Equal(t, 2, result.Pages)
}

func TestWalkAbortsAfterConsecutiveFailures(t *testing.T) {
	attempts := 0
	result, err := WalkPages(context.Background(), testWalkConfig(), zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			attempts++
			return nil, &scrydex.APIError{StatusCode: 500, Message: "boom"}
		},
		func(page int, items []string) error { return nil },
	)

	require.Error(t, err)
	assert.Equal(t, StopFailed, result.Reason)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, result.PageFails)
}

func TestWalkSkipsSinglePageFailure(t *testing.T) {
	var handled []int
	result, err := WalkPages(context.Background(), testWalkConfig(), zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			switch page {
			case 2:
				return nil, &scrydex.APIError{StatusCode: 500, Message: "boom"}
			case 4:
				return nil, nil
			default:
				return pageOf(pageSize), nil
			}
		},
		func(page int, items []string) error {
			handled = append(handled, page)
			return nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	assert.Equal(t, []int{1, 3}, handled)
	assert.Equal(t, 1, result.PageFails)
}

func TestWalkFailureCounterResetsOnSuccess(t *testing.T) {
	// Two failures, a success, two more failures: never three in a row,
	// so the walk must run to the end of data.
	responses := map[int]bool{2: true, 3: true, 5: true, 6: true} // pages that fail
	result, err := WalkPages(context.Background(), testWalkConfig(), zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			if responses[page] {
				return nil, &scrydex.APIError{StatusCode: 502, Message: "bad gateway"}
			}
			if page >= 8 {
				return nil, nil
			}
			return pageOf(pageSize), nil
		},
		func(page int, items []string) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	assert.Equal(t, 4, result.PageFails)
}

func TestWalkSkipsAheadAfterDuplicateStreak(t *testing.T) {
	cfg := testWalkConfig()
	cfg.SkipAfter = 2

	var fetchedPages []int
	result, err := WalkPages(context.Background(), cfg, zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			fetchedPages = append(fetchedPages, page)
			if page >= 7 {
				return nil, nil
			}
			return pageOf(pageSize), nil
		},
		func(page int, items []string) error {
			if page <= 2 {
				return ErrAllDuplicates
			}
			return nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	// Pages 1 and 2 are all duplicates; after the streak of 2 the walker
	// jumps from page 2 to page 4.
	assert.Equal(t, []int{1, 2, 4, 5, 6, 7}, fetchedPages)
}

func TestWalkRetriesRateLimitedPageInPlace(t *testing.T) {
	cfg := testWalkConfig()
	cfg.RateLimitCooldown = time.Millisecond

	rateLimited := false
	var fetchedPages []int
	result, err := WalkPages(context.Background(), cfg, zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			fetchedPages = append(fetchedPages, page)
			if page == 2 && !rateLimited {
				rateLimited = true
				return nil, &scrydex.RateLimitError{Message: "slow down"}
			}
			if page >= 3 {
				return nil, nil
			}
			return pageOf(pageSize), nil
		},
		func(page int, items []string) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	// Page 2 is retried in place after the cooldown, and the successful
	// retry leaves the failure budget untouched.
	assert.Equal(t, []int{1, 2, 2, 3}, fetchedPages)
	assert.Equal(t, 0, result.PageFails)
	assert.Equal(t, 2, result.Pages)
}

func TestWalkErrorPageBreaksDuplicateStreak(t *testing.T) {
	cfg := testWalkConfig()
	cfg.SkipAfter = 2

	var fetchedPages []int
	result, err := WalkPages(context.Background(), cfg, zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			fetchedPages = append(fetchedPages, page)
			if page >= 5 {
				return nil, nil
			}
			return pageOf(pageSize), nil
		},
		func(page int, items []string) error {
			switch page {
			case 1, 3:
				return ErrAllDuplicates
			case 2:
				return errors.New("upsert failed")
			default:
				return nil
			}
		},
	)

	require.NoError(t, err)
	assert.Equal(t, StopEndOfData, result.Reason)
	// Pages 1 and 3 are all duplicates but page 2 errored in between, so
	// no streak of 2 forms and the walk never jumps ahead.
	assert.Equal(t, []int{1, 2, 3, 4, 5}, fetchedPages)
}

func TestWalkHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	result, err := WalkPages(ctx, testWalkConfig(), zerolog.Nop(),
		func(page, pageSize int) ([]string, error) {
			if page == 2 {
				cancel()
			}
			return pageOf(pageSize), nil
		},
		func(page int, items []string) error { return nil },
	)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCanceled, result.Reason)
	// Page 2 ran to completion; cancellation lands between pages.
	assert.Equal(t, 2, result.Pages)
}
