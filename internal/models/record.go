package models

import "time"

// RequestStatus captures the workflow state of a vaccination record.
// pending_request and approved are transient; rejected and completed are
// terminal for the record instance.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending_request"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
)

// Record is a vaccination event or request attached to one animal.
// Withdrawal fields are derived: end date = vaccination date + withdrawal
// days for the vaccination type. IsVerified is the certification flag that
// unlocks the market-value uplift; it is only set by a vet sign-off.
type Record struct {
	ID               int64         `db:"id" json:"id"`
	AnimalID         int64         `db:"animal_id" json:"animal_id"`
	VaccinationType  string        `db:"vaccination_type" json:"vaccination_type"`
	VaccinationDate  *time.Time    `db:"vaccination_date" json:"vaccination_date,omitempty"`
	NextDueDate      *time.Time    `db:"next_due_date" json:"next_due_date,omitempty"`
	ProposedDate     *time.Time    `db:"proposed_date" json:"proposed_date,omitempty"`
	Notes            *string       `db:"notes" json:"notes,omitempty"`
	IsVerified       bool          `db:"is_verified" json:"is_verified"`
	RequestStatus    RequestStatus `db:"request_status" json:"request_status"`
	VetID            *int64        `db:"vet_id" json:"vet_id,omitempty"`
	VerifiedAt       *time.Time    `db:"verified_at" json:"verified_at,omitempty"`
	WithdrawalEnd    *time.Time    `db:"withdrawal_end_date" json:"withdrawal_end_date,omitempty"`
	WithdrawalDays   int           `db:"withdrawal_days" json:"withdrawal_days"`
	BatchNumber      *string       `db:"batch_number" json:"batch_number,omitempty"`
	Dosage           *string       `db:"dosage" json:"dosage,omitempty"`
	ClinicalNotes    *string       `db:"clinical_notes" json:"clinical_notes,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// RecordDetail joins a record with the display fields projections need.
type RecordDetail struct {
	Record
	AnimalTag       string  `db:"animal_tag" json:"animal_tag"`
	AnimalBreed     string  `db:"animal_breed" json:"animal_breed"`
	AnimalSpecies   Species `db:"animal_species" json:"animal_species"`
	FarmerID        int64   `db:"farmer_id" json:"farmer_id"`
	AnimalBasePrice float64 `db:"animal_base_price" json:"-"`
	FarmerName      *string `db:"farmer_name" json:"farmer_name,omitempty"`
	VetName         *string `db:"vet_name" json:"vet_name,omitempty"`
}
