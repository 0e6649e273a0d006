package api

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tgaskin/cardvault/internal/database"
	"github.com/tgaskin/cardvault/internal/models"
	"github.com/tgaskin/cardvault/internal/syncer"
	"github.com/valyala/fasthttp"
)

// TriggerFunc starts a sync pipeline run. Wired in by the server entrypoint
// so the handler doesn't own pipeline construction.
type TriggerFunc func(ctx context.Context, kind syncer.Kind) error

// Handler serves the collection UI's backend API: catalog browsing,
// collection management, and sync health.
type Handler struct {
	db      *database.Database
	trigger TriggerFunc
	log     zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(db *database.Database, trigger TriggerFunc, logger zerolog.Logger) *Handler {
	return &Handler{
		db:      db,
		trigger: trigger,
		log:     logger.With().Str("component", "api").Logger(),
	}
}

// HandleRequest is the fasthttp entrypoint.
func (h *Handler) HandleRequest(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	switch path {
	case "/api/health":
		h.handleHealth(ctx)
	case "/api/sync-status":
		h.handleSyncStatus(ctx)
	case "/api/sync/trigger":
		h.handleSyncTrigger(ctx)
	case "/api/cards":
		h.handleCards(ctx)
	case "/api/card-prices":
		h.handleCardPrices(ctx)
	case "/api/expansions":
		h.handleExpansions(ctx)
	case "/api/collection":
		h.handleCollection(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (h *Handler) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleSyncStatus(ctx *fasthttp.RequestCtx) {
	statuses, err := h.db.ListSyncStatuses(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("sync status query failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to load sync status")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"statuses": statuses})
}

func (h *Handler) handleSyncTrigger(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "POST required")
		return
	}

	kindParam := string(ctx.QueryArgs().Peek("kind"))
	if kindParam == "" {
		kindParam = string(syncer.KindFull)
	}
	kind, err := syncer.ParseKind(kindParam)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	// Reject if that kind is already running; nothing stops concurrent
	// runs at the storage level, so the status row is the gate.
	status, err := h.db.GetSyncStatus(ctx, string(kind))
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to load sync status")
		return
	}
	if status != nil && status.InProgress {
		writeError(ctx, fasthttp.StatusConflict, "sync already in progress")
		return
	}

	go func() {
		if err := h.trigger(context.Background(), kind); err != nil {
			h.log.Error().Err(err).Str("kind", string(kind)).Msg("triggered sync failed")
		}
	}()

	writeJSON(ctx, fasthttp.StatusAccepted, map[string]any{"kind": kind, "started": true})
}

func (h *Handler) handleCards(ctx *fasthttp.RequestCtx) {
	page := queryInt(ctx, "page", 1)
	pageSize := queryInt(ctx, "page_size", 50)
	expansionID := string(ctx.QueryArgs().Peek("expansion_id"))

	cards, err := h.db.ListCards(ctx, expansionID, page, pageSize)
	if err != nil {
		h.log.Error().Err(err).Msg("card query failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to load cards")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"cards":     cards,
		"count":     len(cards),
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *Handler) handleCardPrices(ctx *fasthttp.RequestCtx) {
	cardID := string(ctx.QueryArgs().Peek("card_id"))
	if cardID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "card_id is required")
		return
	}

	prices, err := h.db.PricesForCard(ctx, cardID)
	if err != nil {
		h.log.Error().Err(err).Msg("price query failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to load prices")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"card_id": cardID, "prices": prices})
}

func (h *Handler) handleExpansions(ctx *fasthttp.RequestCtx) {
	expansions, err := h.db.ListExpansions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("expansion query failed")
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to load expansions")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"expansions": expansions,
		"count":      len(expansions),
	})
}

func (h *Handler) handleCollection(ctx *fasthttp.RequestCtx) {
	switch {
	case ctx.IsGet():
		userID := string(ctx.QueryArgs().Peek("user_id"))
		if userID == "" {
			writeError(ctx, fasthttp.StatusBadRequest, "user_id is required")
			return
		}
		items, err := h.db.ListCollection(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Msg("collection query failed")
			writeError(ctx, fasthttp.StatusInternalServerError, "failed to load collection")
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]any{"items": items, "count": len(items)})

	case ctx.IsPost():
		var item models.CollectionItem
		if err := json.Unmarshal(ctx.PostBody(), &item); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if item.UserID == "" || item.CardID == "" {
			writeError(ctx, fasthttp.StatusBadRequest, "user_id and card_id are required")
			return
		}
		if err := h.db.AddToCollection(ctx, item); err != nil {
			h.log.Error().Err(err).Msg("collection insert failed")
			writeError(ctx, fasthttp.StatusInternalServerError, "failed to add to collection")
			return
		}
		writeJSON(ctx, fasthttp.StatusCreated, map[string]any{"added": true})

	case ctx.IsDelete():
		userID := string(ctx.QueryArgs().Peek("user_id"))
		cardID := string(ctx.QueryArgs().Peek("card_id"))
		if userID == "" || cardID == "" {
			writeError(ctx, fasthttp.StatusBadRequest, "user_id and card_id are required")
			return
		}
		if err := h.db.RemoveFromCollection(ctx, userID, cardID); err != nil {
			h.log.Error().Err(err).Msg("collection delete failed")
			writeError(ctx, fasthttp.StatusInternalServerError, "failed to remove from collection")
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]any{"removed": true})

	default:
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	}
}

func queryInt(ctx *fasthttp.RequestCtx, key string, def int) int {
	v := string(ctx.QueryArgs().Peek(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	_ = json.NewEncoder(ctx).Encode(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]any{"error": msg})
}
