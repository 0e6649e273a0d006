package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/tgaskin/cardvault/internal/scrydex"
	"golang.org/x/time/rate"
)

// StopReason explains why a page walk ended.
type StopReason string

const (
	StopEndOfData StopReason = "end_of_data"
	StopMaxPages  StopReason = "max_pages"
	StopFailed    StopReason = "failed"
	StopCanceled  StopReason = "canceled"
)

// ErrAllDuplicates is returned by a page handler to signal that every record
// on the page was already stored. The walker uses it to drive the skip-ahead
// heuristic; it is not a failure.
var ErrAllDuplicates = errors.New("syncer: page contained only known records")

const (
	transientRetries         = 2
	defaultTransientBackoff  = 2 * time.Second
	defaultRateLimitCooldown = 10 * time.Second
)

// WalkConfig parameterizes one paginated walk.
type WalkConfig struct {
	StartPage     int
	PageSize      int
	MaxPages      int // pages to process this run; 0 = unlimited
	PageDelay     time.Duration
	FailureBudget int // consecutive page failures before aborting
	SkipAfter     int // K consecutive all-duplicate pages trigger a K-page jump; 0 disables

	// RateLimitCooldown is the wait before the single same-page retry
	// after a 429. TransientBackoff scales the bounded retries of
	// transient network errors. Zero values take the defaults.
	RateLimitCooldown time.Duration
	TransientBackoff  time.Duration
}

func (cfg *WalkConfig) applyDefaults() {
	if cfg.RateLimitCooldown <= 0 {
		cfg.RateLimitCooldown = defaultRateLimitCooldown
	}
	if cfg.TransientBackoff <= 0 {
		cfg.TransientBackoff = defaultTransientBackoff
	}
}

// WalkResult summarizes a finished walk.
type WalkResult struct {
	Reason    StopReason
	Pages     int // pages successfully handled
	Items     int // items seen across handled pages
	LastPage  int // highest page number attempted
	PageFails int // pages given up on after retries
}

// WalkPages drives fetch across increasing page numbers until a page comes
// back short, MaxPages is hit, the consecutive-failure budget is exhausted,
// or the context is canceled. Each fetched page is passed to handle before
// the next fetch starts, so the caller consumes results incrementally.
//
// Failure policy per page: transient errors retry in place with backoff;
// a rate-limit response cools down and retries the same page once; anything
// else (and exhausted retries) logs, counts against the consecutive-failure
// budget, and skips to the next page.
func WalkPages[T any](
	ctx context.Context,
	cfg WalkConfig,
	log zerolog.Logger,
	fetch func(page, pageSize int) ([]T, error),
	handle func(page int, items []T) error,
) (WalkResult, error) {
	cfg.applyDefaults()
	page := cfg.StartPage
	if page < 1 {
		page = 1
	}

	var limiter *rate.Limiter
	if cfg.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.PageDelay), 1)
	}

	result := WalkResult{Reason: StopEndOfData}
	consecutiveFails := 0
	dupStreak := 0
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			result.Reason = StopCanceled
			return result, err
		}
		if cfg.MaxPages > 0 && processed >= cfg.MaxPages {
			result.Reason = StopMaxPages
			return result, nil
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				result.Reason = StopCanceled
				return result, err
			}
		}

		result.LastPage = page
		items, err := fetchWithRetry(ctx, cfg, fetch, page, log)
		processed++

		if err != nil {
			result.PageFails++
			consecutiveFails++
			log.Error().Err(err).Int("page", page).Int("consecutive_failures", consecutiveFails).
				Msg("page fetch failed, skipping")
			if consecutiveFails >= cfg.FailureBudget {
				result.Reason = StopFailed
				return result, errors.New("syncer: consecutive page failure budget exhausted")
			}
			page++
			continue
		}
		consecutiveFails = 0

		if len(items) == 0 {
			return result, nil
		}

		result.Items += len(items)
		if herr := handle(page, items); herr != nil {
			if errors.Is(herr, ErrAllDuplicates) {
				dupStreak++
				if cfg.SkipAfter > 0 && dupStreak >= cfg.SkipAfter {
					log.Info().Int("page", page).Int("skip", cfg.SkipAfter).
						Msg("consecutive duplicate pages, skipping ahead")
					page += cfg.SkipAfter
					dupStreak = 0
					result.Pages++
					continue
				}
			} else {
				// Storage-side failures are contained: the batch result
				// already reports them, the walk goes on. An error page
				// breaks the duplicate streak so it can't feed the
				// skip-ahead heuristic.
				dupStreak = 0
				log.Error().Err(herr).Int("page", page).Msg("page handler failed")
			}
		} else {
			dupStreak = 0
		}
		result.Pages++

		if len(items) < cfg.PageSize {
			return result, nil
		}
		page++
	}
}

// fetchWithRetry applies the per-page retry policy: bounded backoff retries
// for transient errors, one cooldown retry for a rate limit.
func fetchWithRetry[T any](
	ctx context.Context,
	cfg WalkConfig,
	fetch func(page, pageSize int) ([]T, error),
	page int,
	log zerolog.Logger,
) ([]T, error) {
	var lastErr error
	cooled := false

	for attempt := 0; ; attempt++ {
		items, err := fetch(page, cfg.PageSize)
		if err == nil {
			return items, nil
		}
		lastErr = err

		switch {
		case scrydex.IsRateLimit(err) && !cooled:
			cooled = true
			log.Warn().Int("page", page).Dur("cooldown", cfg.RateLimitCooldown).
				Msg("rate limited, cooling down")
			if !sleepCtx(ctx, cfg.RateLimitCooldown) {
				return nil, ctx.Err()
			}
		case scrydex.IsTransient(err) && attempt < transientRetries:
			backoff := cfg.TransientBackoff * time.Duration(attempt+1)
			log.Warn().Err(err).Int("page", page).Dur("backoff", backoff).
				Msg("transient error, retrying")
			if !sleepCtx(ctx, backoff) {
				return nil, ctx.Err()
			}
		default:
			return nil, lastErr
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
