package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/service"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
	"github.com/farmtrust/livestock-api/pkg/response"
)

// LivestockHandler exposes the animal registry and valuation endpoints.
type LivestockHandler struct {
	livestock *service.LivestockService
	valuation *service.ValuationService
}

// NewLivestockHandler constructs LivestockHandler.
func NewLivestockHandler(livestock *service.LivestockService, valuation *service.ValuationService) *LivestockHandler {
	return &LivestockHandler{livestock: livestock, valuation: valuation}
}

// Register godoc
// @Summary Register an animal
// @Tags Livestock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.RegisterAnimalRequest true "Animal payload"
// @Success 201 {object} response.Envelope
// @Router /livestock [post]
func (h *LivestockHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.RegisterAnimalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	animal, err := h.livestock.Register(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, animal)
}

// List godoc
// @Summary List the caller's animals
// @Tags Livestock
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /livestock [get]
func (h *LivestockHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	animals, err := h.livestock.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, animals, nil)
}

// Get godoc
// @Summary Get one animal with its live valuation
// @Tags Livestock
// @Security BearerAuth
// @Produce json
// @Param id path int true "Animal ID"
// @Success 200 {object} response.Envelope
// @Router /livestock/{id} [get]
func (h *LivestockHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid animal id"))
		return
	}
	claims := claimsFromContext(c)

	animal, err := h.livestock.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	valuation, err := h.valuation.EstimateValue(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AnimalView{
		Animal:               *animal,
		EstimatedMarketValue: valuation.EstimatedValue,
		IsCertified:          valuation.IsCertified,
	}, nil)
}

// Update godoc
// @Summary Update an animal profile
// @Tags Livestock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Animal ID"
// @Param payload body dto.UpdateAnimalRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Router /livestock/{id} [put]
func (h *LivestockHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid animal id"))
		return
	}
	claims := claimsFromContext(c)

	var req dto.UpdateAnimalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	animal, err := h.livestock.Update(c.Request.Context(), id, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, animal, nil)
}

// Delete godoc
// @Summary Delete an animal and its records
// @Tags Livestock
// @Security BearerAuth
// @Param id path int true "Animal ID"
// @Success 204 "No Content"
// @Router /livestock/{id} [delete]
func (h *LivestockHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid animal id"))
		return
	}
	claims := claimsFromContext(c)

	if err := h.livestock.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Valuation godoc
// @Summary Get the live market valuation of an animal
// @Tags Livestock
// @Security BearerAuth
// @Produce json
// @Param id path int true "Animal ID"
// @Success 200 {object} response.Envelope
// @Router /livestock/{id}/valuation [get]
func (h *LivestockHandler) Valuation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid animal id"))
		return
	}
	claims := claimsFromContext(c)

	if _, err := h.livestock.Get(c.Request.Context(), id, claims); err != nil {
		response.Error(c, err)
		return
	}
	valuation, err := h.valuation.EstimateValue(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, valuation, nil)
}

// Search godoc
// @Summary Resolve an animal by tag (vet portal)
// @Tags Livestock
// @Security BearerAuth
// @Produce json
// @Param tag query string true "Animal tag"
// @Success 200 {object} response.Envelope
// @Router /livestock/search [get]
func (h *LivestockHandler) Search(c *gin.Context) {
	tag := strings.TrimSpace(c.Query("tag"))
	result, err := h.livestock.SearchByTag(c.Request.Context(), tag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Equity godoc
// @Summary Total farm equity across the caller's herd
// @Tags Livestock
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /livestock/equity [get]
func (h *LivestockHandler) Equity(c *gin.Context) {
	claims := claimsFromContext(c)
	equity, err := h.valuation.FarmEquity(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, equity, nil)
}
