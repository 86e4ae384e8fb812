package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/offerslab/offers-api/internal/middleware"
	"github.com/offerslab/offers-api/internal/model"
	"github.com/offerslab/offers-api/internal/repo"
)

// ItemsHandler handles the protected item store endpoints.
type ItemsHandler struct {
	items    repo.ItemRepo
	validate *validator.Validate
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(items repo.ItemRepo) *ItemsHandler {
	return &ItemsHandler{
		items:    items,
		validate: validator.New(),
	}
}

type itemRequest struct {
	ItemID string  `json:"item_id" validate:"required"`
	Name   string  `json:"name" validate:"required,max=255"`
	Price  float64 `json:"price" validate:"required,gt=0"`
}

// HandleCreate handles POST /items.
func (h *ItemsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item")
		return
	}

	if claims, ok := middleware.GetClaims(r.Context()); ok {
		log.Debug().Str("sub", claims.UserID.String()).Str("item_id", req.ItemID).Msg("create item")
	}

	item := model.Item{ItemID: req.ItemID, Name: req.Name, Price: req.Price}
	if err := h.items.Put(r.Context(), item); err != nil {
		log.Error().Err(err).Str("item_id", req.ItemID).Msg("failed to store item")
		respondError(w, http.StatusBadGateway, "failed_to_store_item")
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// HandleGet handles GET /items/{item_id}.
func (h *ItemsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")

	item, err := h.items.Get(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "item_not_found")
			return
		}
		log.Error().Err(err).Str("item_id", itemID).Msg("failed to fetch item")
		respondError(w, http.StatusBadGateway, "failed_to_fetch_item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}
