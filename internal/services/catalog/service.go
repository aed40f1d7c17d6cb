// Package catalog manages a school's reference data: parents, classes, terms, students and fee
// structures.
package catalog

import (
	"context"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	store    repository.Store
	validate *validator.Validate
}

func NewService(store repository.Store) *Service {
	return &Service{store: store, validate: validation.New()}
}

func (s *Service) check(in interface{}) error {
	return apperrors.FromValidator(s.validate.Struct(in))
}

func (s *Service) CreateSchool(ctx context.Context, name, slug, email string) (*models.School, error) {
	if name == "" {
		return nil, apperrors.MissingField("name")
	}
	if slug == "" {
		return nil, apperrors.MissingField("slug")
	}
	school := &models.School{ID: uuid.New(), Name: name, Slug: slug, Email: email, CreatedAt: time.Now()}
	if err := s.store.CreateSchool(ctx, school); err != nil {
		return nil, err
	}
	return school, nil
}

type ParentInput struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (s *Service) CreateParent(ctx context.Context, schoolID uuid.UUID, in ParentInput) (*models.Parent, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	parent := &models.Parent{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		FullName:  in.FullName,
		Phone:     in.Phone,
		Email:     in.Email,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateParent(ctx, parent); err != nil {
		return nil, err
	}
	return parent, nil
}

func (s *Service) ListParents(ctx context.Context, schoolID uuid.UUID) ([]models.Parent, error) {
	return s.store.ListParents(ctx, schoolID)
}

func (s *Service) CreateClassRoom(ctx context.Context, schoolID uuid.UUID, name string) (*models.ClassRoom, error) {
	if name == "" {
		return nil, apperrors.MissingField("name")
	}
	room := &models.ClassRoom{ID: uuid.New(), SchoolID: schoolID, Name: name, CreatedAt: time.Now()}
	if err := s.store.CreateClassRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) ListClassRooms(ctx context.Context, schoolID uuid.UUID) ([]models.ClassRoom, error) {
	return s.store.ListClassRooms(ctx, schoolID)
}

type TermInput struct {
	Session   string    `json:"session"`
	Name      string    `json:"name" validate:"required,max=100"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsActive  bool      `json:"is_active"`
}

func (s *Service) CreateTerm(ctx context.Context, schoolID uuid.UUID, in TermInput) (*models.Term, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, apperrors.Validation("end_date", "must not be before start_date")
	}
	term := &models.Term{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Session:   in.Session,
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		IsActive:  in.IsActive,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateTerm(ctx, term); err != nil {
		return nil, err
	}
	return term, nil
}

func (s *Service) ListTerms(ctx context.Context, schoolID uuid.UUID) ([]models.Term, error) {
	return s.store.ListTerms(ctx, schoolID)
}

type StudentInput struct {
	ParentID        uuid.UUID `json:"parent_id" validate:"required"`
	ClassRoomID     uuid.UUID `json:"class_room_id" validate:"required"`
	AdmissionNumber string    `json:"admission_number" validate:"required,max=50"`
	FirstName       string    `json:"first_name" validate:"required,max=100"`
	LastName        string    `json:"last_name" validate:"required,max=100"`
	IsActive        *bool     `json:"is_active"`
}

func (s *Service) CreateStudent(ctx context.Context, schoolID uuid.UUID, in StudentInput) (*models.Student, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now()
	student := &models.Student{
		ID:              uuid.New(),
		SchoolID:        schoolID,
		ParentID:        in.ParentID,
		ClassRoomID:     in.ClassRoomID,
		AdmissionNumber: in.AdmissionNumber,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		IsActive:        active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// StudentSummary is a student together with the sum of their open invoice balances.
type StudentSummary struct {
	models.Student
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

func (s *Service) ListStudents(ctx context.Context, schoolID uuid.UUID, filter repository.StudentFilter) ([]StudentSummary, error) {
	students, err := s.store.ListStudents(ctx, schoolID, filter)
	if err != nil {
		return nil, err
	}
	balances, err := s.store.OutstandingByStudent(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[uuid.UUID]decimal.Decimal, len(balances))
	for _, b := range balances {
		byStudent[b.StudentID] = b.Balance
	}

	out := make([]StudentSummary, 0, len(students))
	for _, st := range students {
		out = append(out, StudentSummary{Student: st, OutstandingBalance: byStudent[st.ID]})
	}
	return out, nil
}

type FeeStructureInput struct {
	ClassRoomID uuid.UUID       `json:"class_room_id" validate:"required"`
	TermID      uuid.UUID       `json:"term_id" validate:"required"`
	TuitionFee  decimal.Decimal `json:"tuition_fee"`
	OtherFees   decimal.Decimal `json:"other_fees"`
}

func (s *Service) CreateFeeStructure(ctx context.Context, schoolID uuid.UUID, in FeeStructureInput) (*models.FeeStructure, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.TuitionFee.IsNegative() {
		return nil, apperrors.Validation("tuition_fee", "must not be negative")
	}
	if in.OtherFees.IsNegative() {
		return nil, apperrors.Validation("other_fees", "must not be negative")
	}
	if _, err := s.store.GetTerm(ctx, schoolID, in.TermID); err != nil {
		return nil, err
	}

	now := time.Now()
	fee := &models.FeeStructure{
		ID:          uuid.New(),
		SchoolID:    schoolID,
		ClassRoomID: in.ClassRoomID,
		TermID:      in.TermID,
		TuitionFee:  in.TuitionFee,
		OtherFees:   in.OtherFees,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateFeeStructure(ctx, fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func (s *Service) ListFeeStructures(ctx context.Context, schoolID uuid.UUID) ([]models.FeeStructure, error) {
	return s.store.ListFeeStructures(ctx, schoolID)
}
