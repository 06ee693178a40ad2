package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmtrust/livestock-api/internal/dto"
	"github.com/farmtrust/livestock-api/internal/service"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
	"github.com/farmtrust/livestock-api/pkg/response"
)

// VaccinationHandler exposes the record workflow endpoints.
type VaccinationHandler struct {
	vaccinations *service.VaccinationService
	metrics      *service.MetricsService
}

// NewVaccinationHandler constructs VaccinationHandler.
func NewVaccinationHandler(vaccinations *service.VaccinationService, metrics *service.MetricsService) *VaccinationHandler {
	return &VaccinationHandler{vaccinations: vaccinations, metrics: metrics}
}

// Create godoc
// @Summary Record an administered vaccination
// @Tags Vaccinations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateRecordRequest true "Record payload"
// @Success 201 {object} response.Envelope
// @Router /vaccinations [post]
func (h *VaccinationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.vaccinations.CreateDirect(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordTransition("created")
	response.Created(c, record)
}

// CreateRequest godoc
// @Summary Open a vaccination request
// @Tags Vaccinations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /vaccinations/requests [post]
func (h *VaccinationHandler) CreateRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.vaccinations.CreateRequest(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordTransition("requested")
	response.Created(c, record)
}

// Approve godoc
// @Summary Approve a pending request (vet)
// @Tags Vaccinations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Param payload body dto.ApproveRequestRequest true "Confirmed schedule"
// @Success 200 {object} response.Envelope
// @Router /vaccinations/requests/{id}/approve [post]
func (h *VaccinationHandler) Approve(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record id"))
		return
	}
	var req dto.ApproveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.vaccinations.Approve(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordTransition("approved")
	response.JSON(c, http.StatusOK, record, nil)
}

// Reject godoc
// @Summary Reject a pending request (vet)
// @Tags Vaccinations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Param payload body dto.RejectRequestRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /vaccinations/requests/{id}/reject [post]
func (h *VaccinationHandler) Reject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record id"))
		return
	}
	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.vaccinations.Reject(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordTransition("rejected")
	response.JSON(c, http.StatusOK, record, nil)
}

// SignOff godoc
// @Summary Sign off a record (vet)
// @Tags Vaccinations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Param payload body dto.SignOffRequest true "Sign-off detail"
// @Success 200 {object} response.Envelope
// @Router /vaccinations/{id}/signoff [post]
func (h *VaccinationHandler) SignOff(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record id"))
		return
	}
	claims := claimsFromContext(c)

	var req dto.SignOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.vaccinations.SignOff(c.Request.Context(), id, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSignoff()
	response.JSON(c, http.StatusOK, record, nil)
}

// Get godoc
// @Summary Get one record
// @Tags Vaccinations
// @Security BearerAuth
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /vaccinations/{id} [get]
func (h *VaccinationHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record id"))
		return
	}
	claims := claimsFromContext(c)

	record, err := h.vaccinations.Get(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a verified record (vet)
// @Tags Vaccinations
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 204 "No Content"
// @Router /vaccinations/{id} [delete]
func (h *VaccinationHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid record id"))
		return
	}
	claims := claimsFromContext(c)

	if err := h.vaccinations.DeleteVerified(c.Request.Context(), id, claims); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordTransition("deleted")
	response.NoContent(c)
}
