package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStructure prices one term for one class.
type FeeStructure struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_fee_school_class_term,priority:1" json:"school_id"`
	ClassRoomID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_fee_school_class_term,priority:2" json:"class_room_id"`
	TermID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_fee_school_class_term,priority:3" json:"term_id"`
	TuitionFee  decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"tuition_fee"`
	OtherFees   decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"other_fees"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (f FeeStructure) Total() decimal.Decimal {
	return f.TuitionFee.Add(f.OtherFees)
}
