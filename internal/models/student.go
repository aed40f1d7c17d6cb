package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Parent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;index" json:"school_id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Student struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_student_school_admission,priority:1" json:"school_id"`
	ParentID        uuid.UUID `gorm:"type:uuid;not null;index" json:"parent_id"`
	ClassRoomID     uuid.UUID `gorm:"type:uuid;not null;index" json:"class_room_id"`
	AdmissionNumber string    `gorm:"size:50;not null;index;uniqueIndex:ux_student_school_admission,priority:2" json:"admission_number"`
	FirstName       string    `gorm:"size:100;not null" json:"first_name"`
	LastName        string    `gorm:"size:100;not null" json:"last_name"`
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FullName is the name matched against statement narrations.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
