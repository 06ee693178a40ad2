package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/service"
	appErrors "github.com/farmtrust/livestock-api/pkg/errors"
	"github.com/farmtrust/livestock-api/pkg/response"
)

// ProjectionHandler exposes the dashboard, work-queue and export views.
type ProjectionHandler struct {
	projections *service.ProjectionService
}

// NewProjectionHandler constructs ProjectionHandler.
func NewProjectionHandler(projections *service.ProjectionService) *ProjectionHandler {
	return &ProjectionHandler{projections: projections}
}

// Dashboard godoc
// @Summary Farmer dashboard with live herd valuations
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *ProjectionHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	dashboard, err := h.projections.FarmerDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// PendingRequests godoc
// @Summary Open vaccination requests (vet queue)
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccinations/requests/pending [get]
func (h *ProjectionHandler) PendingRequests(c *gin.Context) {
	views, err := h.projections.PendingRequests(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// PendingSignoffs godoc
// @Summary Approved records awaiting sign-off, with uplift amounts
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccinations/signoffs/pending [get]
func (h *ProjectionHandler) PendingSignoffs(c *gin.Context) {
	views, err := h.projections.PendingSignoffs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// PendingTreatments godoc
// @Summary Unverified records outside the request queue
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccinations/treatments/pending [get]
func (h *ProjectionHandler) PendingTreatments(c *gin.Context) {
	views, err := h.projections.PendingTreatments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// VerifiedRecords godoc
// @Summary Certified records, farm-scoped for farmers
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccinations/verified [get]
func (h *ProjectionHandler) VerifiedRecords(c *gin.Context) {
	claims := claimsFromContext(c)
	views, err := h.projections.VerifiedRecords(c.Request.Context(), verifiedScope(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// DueForVaccination godoc
// @Summary The caller's records past their next due date
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccinations/due [get]
func (h *ProjectionHandler) DueForVaccination(c *gin.Context) {
	claims := claimsFromContext(c)
	views, err := h.projections.DueForVaccination(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// AnimalHistory godoc
// @Summary Full record timeline of one animal
// @Tags Projections
// @Security BearerAuth
// @Produce json
// @Param id path int true "Animal ID"
// @Success 200 {object} response.Envelope
// @Router /livestock/{id}/records [get]
func (h *ProjectionHandler) AnimalHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid animal id"))
		return
	}
	claims := claimsFromContext(c)

	views, err := h.projections.AnimalHistory(c.Request.Context(), id, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// ExportVerified godoc
// @Summary Export certified records as CSV or PDF
// @Tags Projections
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /vaccinations/verified/export [get]
func (h *ProjectionHandler) ExportVerified(c *gin.Context) {
	claims := claimsFromContext(c)
	format := c.DefaultQuery("format", "csv")

	data, contentType, err := h.projections.ExportVerifiedRecords(c.Request.Context(), verifiedScope(claims), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("vaccination-certificates-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// verifiedScope restricts farmers to their own herd; vets see everything.
func verifiedScope(claims *models.JWTClaims) *int64 {
	if claims != nil && claims.Role == models.RoleFarmer {
		id := claims.UserID
		return &id
	}
	return nil
}
