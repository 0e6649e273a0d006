// Package syncer drives the paginated fetch-transform-upsert pipelines that
// keep the local catalog in step with the Scrydex API.
package syncer

import (
	"fmt"
	"time"
)

// Kind is the closed set of sync pipelines. Each kind maps to an explicit
// configuration rather than a stringly-typed dispatch switch.
type Kind string

const (
	// KindFull syncs expansions, then all cards with pricing.
	KindFull Kind = "full"
	// KindPricing refreshes price rows only; cards are assumed present.
	KindPricing Kind = "pricing"
	// KindComprehensive is the resumable variant of the full sync: it
	// estimates a start page from the stored row count and writes only
	// records the dedup check hasn't seen.
	KindComprehensive Kind = "comprehensive"
	// KindTest is a limited smoke run against the live API.
	KindTest Kind = "test"
)

// ParseKind validates a user-supplied kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFull, KindPricing, KindComprehensive, KindTest:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown sync kind %q (want full, pricing, comprehensive, or test)", s)
	}
}

// PipelineConfig is one kind's full parameterization. Built by ConfigForKind
// and optionally narrowed by CLI flags.
type PipelineConfig struct {
	Kind           Kind
	SyncExpansions bool
	SyncCards      bool
	SyncPrices     bool
	OnlyNewCards   bool // skip upserting cards the dedup check already knows
	Resume         bool // derive a start page instead of starting at 1

	PageSize      int
	MaxPages      int // 0 = unlimited
	BatchSize     int
	PageDelay     time.Duration
	FailureBudget int // consecutive page failures before aborting
	ProgressEvery int // pages between sync-status checkpoints

	// DuplicateSkipAfter is the K of the skip-ahead heuristic: after K
	// consecutive all-duplicate pages the walker jumps K pages forward.
	// 0 disables.
	DuplicateSkipAfter int
}

// ConfigForKind returns the pipeline configuration for a sync kind.
func ConfigForKind(kind Kind) PipelineConfig {
	cfg := PipelineConfig{
		Kind:          kind,
		PageSize:      100,
		BatchSize:     100,
		PageDelay:     time.Second,
		FailureBudget: 3,
		ProgressEvery: 5,
	}

	switch kind {
	case KindFull:
		cfg.SyncExpansions = true
		cfg.SyncCards = true
		cfg.SyncPrices = true
	case KindPricing:
		cfg.SyncCards = false
		cfg.SyncPrices = true
		cfg.PageSize = 50
		cfg.PageDelay = 2 * time.Second
	case KindComprehensive:
		cfg.SyncExpansions = true
		cfg.SyncCards = true
		cfg.SyncPrices = true
		cfg.OnlyNewCards = true
		cfg.Resume = true
		cfg.PageDelay = 500 * time.Millisecond
		cfg.DuplicateSkipAfter = 5
	case KindTest:
		cfg.SyncCards = true
		cfg.SyncPrices = true
		cfg.PageSize = 25
		cfg.MaxPages = 2
		cfg.PageDelay = 200 * time.Millisecond
	}
	return cfg
}
