package syncer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tgaskin/cardvault/internal/database"
	"github.com/tgaskin/cardvault/internal/models"
	"github.com/tgaskin/cardvault/internal/pricing"
	"github.com/tgaskin/cardvault/internal/scrydex"
)

// Fetcher is the slice of the Scrydex client the pipeline needs.
type Fetcher interface {
	FetchCards(page, pageSize int, includePrices bool) ([]scrydex.Card, error)
	FetchExpansions(page, pageSize int) ([]scrydex.Expansion, error)
}

// Store is the slice of the database the pipeline needs. Satisfied by
// *database.Database; faked in tests.
type Store interface {
	UpsertCards(ctx context.Context, cards []models.Card, batchSize int) database.BatchResult
	UpsertExpansions(ctx context.Context, expansions []models.Expansion, batchSize int) database.BatchResult
	UpsertPrices(ctx context.Context, prices []models.SelectedPrice, batchSize int) database.BatchResult
	ExistingCardIDs(ctx context.Context, ids []string) (map[string]bool, error)
	CountCards(ctx context.Context) (int, error)
	GetSyncStatus(ctx context.Context, kind string) (*models.SyncStatus, error)
	MarkStarted(ctx context.Context, kind string) error
	MarkProgress(ctx context.Context, kind string, counts models.SyncCounts) error
	MarkCompleted(ctx context.Context, kind string, counts models.SyncCounts) error
	MarkFailed(ctx context.Context, kind string, err error) error
}

// Pipeline is one sync run's state. Build a fresh one per invocation; there
// is no shared mutable state between runs beyond the store itself.
type Pipeline struct {
	cfg    PipelineConfig
	client Fetcher
	store  Store
	log    zerolog.Logger

	counts models.SyncCounts
}

// NewPipeline wires a pipeline for one run.
func NewPipeline(cfg PipelineConfig, client Fetcher, store Store, logger zerolog.Logger) *Pipeline {
	if cfg.ProgressEvery < 1 {
		cfg.ProgressEvery = 1
	}
	return &Pipeline{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    logger.With().Str("sync_kind", string(cfg.Kind)).Logger(),
	}
}

// Run executes the pipeline to completion. The status row for the kind is
// updated at start, on page checkpoints, and at the end either way. The
// returned error is non-nil only for run-terminating conditions; contained
// per-page and per-batch failures are logged and recorded instead.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.store.MarkStarted(ctx, string(p.cfg.Kind)); err != nil {
		return err
	}

	if err := p.run(ctx); err != nil {
		if merr := p.store.MarkFailed(ctx, string(p.cfg.Kind), err); merr != nil {
			p.log.Error().Err(merr).Msg("failed to record sync failure")
		}
		return err
	}

	if err := p.store.MarkCompleted(ctx, string(p.cfg.Kind), p.counts); err != nil {
		return err
	}
	p.log.Info().
		Int("cards", p.counts.Cards).
		Int("expansions", p.counts.Expansions).
		Int("prices", p.counts.Prices).
		Msg("sync completed")
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	if p.cfg.SyncExpansions {
		if err := p.syncExpansions(ctx); err != nil {
			return fmt.Errorf("expansion sync: %w", err)
		}
	}
	if p.cfg.SyncCards || p.cfg.SyncPrices {
		if err := p.syncCards(ctx); err != nil {
			return fmt.Errorf("card sync: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) syncExpansions(ctx context.Context) error {
	walkCfg := WalkConfig{
		StartPage:     1,
		PageSize:      p.cfg.PageSize,
		MaxPages:      p.cfg.MaxPages,
		PageDelay:     p.cfg.PageDelay,
		FailureBudget: p.cfg.FailureBudget,
	}

	result, err := WalkPages(ctx, walkCfg, p.log,
		func(page, pageSize int) ([]scrydex.Expansion, error) {
			return p.client.FetchExpansions(page, pageSize)
		},
		func(page int, items []scrydex.Expansion) error {
			expansions := make([]models.Expansion, len(items))
			for i, e := range items {
				expansions[i] = e.ToModel()
			}
			res := p.store.UpsertExpansions(ctx, expansions, p.cfg.BatchSize)
			p.counts.Expansions += res.Succeeded
			p.logBatchFailures("expansions", page, res)
			return nil
		},
	)
	p.log.Info().
		Str("reason", string(result.Reason)).
		Int("pages", result.Pages).
		Int("items", result.Items).
		Msg("expansion walk finished")
	return err
}

func (p *Pipeline) syncCards(ctx context.Context) error {
	startPage := 1
	if p.cfg.Resume {
		var err error
		startPage, err = p.startPageForResume(ctx)
		if err != nil {
			return err
		}
		p.log.Info().Int("start_page", startPage).Msg("resuming card walk")
	}

	walkCfg := WalkConfig{
		StartPage:     startPage,
		PageSize:      p.cfg.PageSize,
		MaxPages:      p.cfg.MaxPages,
		PageDelay:     p.cfg.PageDelay,
		FailureBudget: p.cfg.FailureBudget,
		SkipAfter:     p.cfg.DuplicateSkipAfter,
	}

	pagesHandled := 0
	result, err := WalkPages(ctx, walkCfg, p.log,
		func(page, pageSize int) ([]scrydex.Card, error) {
			return p.client.FetchCards(page, pageSize, p.cfg.SyncPrices)
		},
		func(page int, items []scrydex.Card) error {
			pagesHandled++
			allDup, err := p.handleCardPage(ctx, page, items)
			if err != nil {
				return err
			}
			p.counts.LastPage = page
			if pagesHandled%p.cfg.ProgressEvery == 0 {
				if merr := p.store.MarkProgress(ctx, string(p.cfg.Kind), p.counts); merr != nil {
					p.log.Error().Err(merr).Msg("failed to checkpoint progress")
				}
			}
			if allDup {
				return ErrAllDuplicates
			}
			return nil
		},
	)
	p.log.Info().
		Str("reason", string(result.Reason)).
		Int("pages", result.Pages).
		Int("items", result.Items).
		Int("last_page", result.LastPage).
		Msg("card walk finished")
	return err
}

// handleCardPage transforms and persists one fetched page. Returns whether
// the page consisted entirely of already-stored cards.
func (p *Pipeline) handleCardPage(ctx context.Context, page int, items []scrydex.Card) (bool, error) {
	ids := make([]string, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}
	existing, err := p.store.ExistingCardIDs(ctx, ids)
	if err != nil {
		return false, err
	}
	newIDs, dupIDs := SplitNew(ids, existing)
	p.log.Debug().Int("page", page).Int("new", len(newIDs)).Int("duplicate", len(dupIDs)).
		Msg("page dedup split")

	if p.cfg.SyncCards {
		var cards []models.Card
		for _, c := range items {
			if p.cfg.OnlyNewCards && existing[c.ID] {
				continue
			}
			cards = append(cards, c.ToModel())
		}
		if len(cards) > 0 {
			res := p.store.UpsertCards(ctx, cards, p.cfg.BatchSize)
			p.counts.Cards += res.Succeeded
			p.logBatchFailures("cards", page, res)
		}
	}

	if p.cfg.SyncPrices {
		var prices []models.SelectedPrice
		for _, c := range items {
			best := pricing.ExtractBest(c.PriceEntries())
			if best.Raw != nil {
				prices = append(prices, models.NewSelectedPrice(c.ID, *best.Raw))
			}
			if best.Graded != nil {
				prices = append(prices, models.NewSelectedPrice(c.ID, *best.Graded))
			}
		}
		if len(prices) > 0 {
			res := p.store.UpsertPrices(ctx, prices, p.cfg.BatchSize)
			p.counts.Prices += res.Succeeded
			p.logBatchFailures("prices", page, res)
		}
	}

	return len(newIDs) == 0, nil
}

// startPageForResume derives where a restarted run should pick up: the
// count-based estimate, pulled back to the last checkpointed page when the
// checkpoint is behind it.
func (p *Pipeline) startPageForResume(ctx context.Context) (int, error) {
	count, err := p.store.CountCards(ctx)
	if err != nil {
		return 0, err
	}
	lastPage := 0
	if status, err := p.store.GetSyncStatus(ctx, string(p.cfg.Kind)); err != nil {
		return 0, err
	} else if status != nil {
		lastPage = status.LastPageProcessed
	}
	return resumeStart(count, p.cfg.PageSize, lastPage), nil
}

func (p *Pipeline) logBatchFailures(what string, page int, res database.BatchResult) {
	for _, f := range res.Failed {
		p.log.Error().Err(f.Err).
			Str("records", what).
			Int("page", page).
			Int("chunk_start", f.Start).
			Int("chunk_end", f.End).
			Msg("batch upsert chunk failed")
	}
}
