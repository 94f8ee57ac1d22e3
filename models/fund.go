package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActiveFundSlot is the value held in Fund.ActiveSlot. The partial unique
// index over undistributed funds turns fund creation into a create-if-absent
// operation.
const ActiveFundSlot = 1

// OpenSlotPredicate is the predicate of the partial unique index on
// active_slot. Upserts must repeat it for the index to be inferred.
const OpenSlotPredicate = "distributed = false"

// legacySlotIndex was a full unique index on active_slot, which kept the
// slot taken after distribution.
const legacySlotIndex = "idx_funds_active_slot"

// Fund is one cycle of the shared fund that collects a share of every paid
// partner repasse until the distribution process pays it out.
type Fund struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	Cycle       int             `gorm:"not null;default:1" json:"cycle"`
	TotalValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_value"`
	StartDate   time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate     time.Time       `gorm:"not null" json:"end_date"` // placeholder until distribution
	Distributed bool            `gorm:"not null;default:false;index" json:"distributed"`

	// ActiveSlot is ActiveFundSlot on every fund this service opens. It is
	// unique only among undistributed funds, so marking a fund distributed
	// frees the slot. Rows written before the slot existed have it NULL.
	ActiveSlot *int `gorm:"uniqueIndex:idx_funds_open_slot,where:distributed = false" json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (f *Fund) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// RepasseStatus is the lifecycle state of a partner remittance.
type RepasseStatus string

const (
	RepasseStatusPending  RepasseStatus = "pendente"
	RepasseStatusPaid     RepasseStatus = "pago"
	RepasseStatusRejected RepasseStatus = "rejeitado"
)

// PartnerRepasse is a remittance a business partner owes the platform.
type PartnerRepasse struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	PartnerID   string          `gorm:"type:uuid;index" json:"partner_id"`
	Value       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"value"`
	Status      RepasseStatus   `gorm:"type:varchar(16);not null;default:'pendente';index" json:"status"`
	RepasseDate time.Time       `gorm:"not null;index" json:"repasse_date"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (r *PartnerRepasse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
