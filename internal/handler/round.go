package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/round"
)

// RoundHandler handles round administration HTTP requests
type RoundHandler struct {
	service round.Service
}

// NewRoundHandler creates a new RoundHandler
func NewRoundHandler(service round.Service) *RoundHandler {
	return &RoundHandler{service: service}
}

// roundIDFromPath extracts and parses the round id path parameter, writing
// a 400 response on failure
func roundIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "roundID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Invalid round ID in path", "value", idStr)
		http.Error(w, ErrMsgInvalidRoundID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// CreateRoundRequest represents the request to open a new round
type CreateRoundRequest struct {
	Kind        string    `json:"kind" validate:"required,round_kind"`
	ProjectsPct int       `json:"projects_pct"`
	PrizesPct   int       `json:"prizes_pct"`
	PlatformPct int       `json:"platform_pct"`
	ClosesAt    time.Time `json:"closes_at" validate:"required"`
}

// HandleCreateRound opens a round. The response carries the reveal seed
// exactly once; the server does not keep it.
func (h *RoundHandler) HandleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req CreateRoundRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create round"); err != nil {
		return
	}

	split := domain.PoolSplit{
		ProjectsPct: req.ProjectsPct,
		PrizesPct:   req.PrizesPct,
		PlatformPct: req.PlatformPct,
	}

	result, err := h.service.CreateRound(r.Context(),
		domain.RoundKind(strings.ToUpper(req.Kind)), split, req.ClosesAt)
	if err != nil {
		respondServiceError(w, r, ErrMsgCreateRoundFailed, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// HandleGetRound returns a round by id
func (h *RoundHandler) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDFromPath(w, r)
	if !ok {
		return
	}

	rnd, err := h.service.GetRound(r.Context(), roundID)
	if err != nil {
		respondServiceError(w, r, ErrMsgGetRoundFailed, err)
		return
	}

	respondJSON(w, http.StatusOK, rnd)
}

// AddEntryRequest represents the request to add tickets to a round
type AddEntryRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Tickets int64  `json:"tickets" validate:"required,gt=0"`
	Source  string `json:"source" validate:"required,entry_source"`
}

// HandleAddEntry adds tickets to an open round. BUY entries debit the
// buyer's wallet and grow the pool.
func (h *RoundHandler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDFromPath(w, r)
	if !ok {
		return
	}

	var req AddEntryRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Add entry"); err != nil {
		return
	}

	userID, _ := uuid.Parse(req.UserID)

	entry, err := h.service.AddEntry(r.Context(), roundID, userID, req.Tickets,
		domain.EntrySource(strings.ToUpper(req.Source)))
	if err != nil {
		respondServiceError(w, r, ErrMsgAddEntryFailed, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// HandleLockRound freezes an open round's entries
func (h *RoundHandler) HandleLockRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.LockRound(r.Context(), roundID); err != nil {
		respondServiceError(w, r, ErrMsgLockRoundFailed, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgRoundLockedSuccess})
}

// DrawRoundRequest carries the operator's reveal seed
type DrawRoundRequest struct {
	RevealSeed string `json:"reveal_seed" validate:"required,len=64,hexadecimal"`
}

// HandleDrawRound verifies the reveal seed and settles the draw
func (h *RoundHandler) HandleDrawRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDFromPath(w, r)
	if !ok {
		return
	}

	var req DrawRoundRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Draw round"); err != nil {
		return
	}

	result, err := h.service.DrawRound(r.Context(), roundID, req.RevealSeed)
	if err != nil {
		respondServiceError(w, r, ErrMsgDrawRoundFailed, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// HandleMarkPaid confirms settlement and completes the round
func (h *RoundHandler) HandleMarkPaid(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkPaid(r.Context(), roundID); err != nil {
		respondServiceError(w, r, ErrMsgMarkPaidFailed, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgRoundPaidSuccess})
}

// HandleDeleteRound removes an open round that has no entries
func (h *RoundHandler) HandleDeleteRound(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteRound(r.Context(), roundID); err != nil {
		respondServiceError(w, r, ErrMsgDeleteRoundFailed, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgRoundDeletedSuccess})
}
