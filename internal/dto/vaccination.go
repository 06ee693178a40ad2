package dto

import "github.com/farmtrust/livestock-api/internal/models"

// CreateRecordRequest back-fills a completed vaccination entry. The record
// starts unverified; certification still requires a vet sign-off.
type CreateRecordRequest struct {
	AnimalID        int64  `json:"animal_id" validate:"required,gt=0"`
	VaccinationType string `json:"vaccination_type" validate:"required"`
	VaccinationDate string `json:"vaccination_date" validate:"required"`
	NextDueDate     string `json:"next_due_date" validate:"required"`
	Notes           string `json:"notes,omitempty"`
}

// CreateRequestRequest opens a vaccination request awaiting vet approval.
type CreateRequestRequest struct {
	AnimalID        int64  `json:"animal_id" validate:"required,gt=0"`
	VaccinationType string `json:"vaccination_type" validate:"required"`
	ProposedDate    string `json:"proposed_date,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// ApproveRequestRequest carries the vet-confirmed schedule for a request.
type ApproveRequestRequest struct {
	VaccinationDate string `json:"vaccination_date" validate:"required"`
	NextDueDate     string `json:"next_due_date" validate:"required"`
}

// RejectRequestRequest carries the optional human-readable reason.
type RejectRequestRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SignOffRequest is the professional sign-off payload. The digital PIN is
// a 4-digit format check only; it is not bound to a stored per-vet secret.
type SignOffRequest struct {
	BatchNumber          string `json:"batch_number" validate:"required"`
	Dosage               string `json:"dosage" validate:"required"`
	WithdrawalPeriodDays int    `json:"withdrawal_period_days" validate:"gte=0,lte=365"`
	ClinicalNotes        string `json:"clinical_notes" validate:"required"`
	DigitalPIN           string `json:"digital_pin" validate:"required"`
}

// RecordView decorates a record detail row with display-side derivations.
type RecordView struct {
	models.RecordDetail
	WithdrawalDaysRemaining int `json:"withdrawal_days_remaining"`
}

// PendingSignoffView adds the valuation uplift a sign-off would unlock.
type PendingSignoffView struct {
	RecordView
	UpliftAmount float64 `json:"uplift_amount"`
}
