package repository

import (
	"context"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
)

func (s *GormStore) CreateSchool(ctx context.Context, school *models.School) error {
	return writeError(s.conn(ctx).Create(school).Error, "school")
}

func (s *GormStore) GetSchool(ctx context.Context, schoolID uuid.UUID) (*models.School, error) {
	var school models.School
	if err := s.conn(ctx).First(&school, "id = ?", schoolID).Error; err != nil {
		return nil, readError(err, "school", schoolID)
	}
	return &school, nil
}

func (s *GormStore) CreateParent(ctx context.Context, parent *models.Parent) error {
	return writeError(s.conn(ctx).Create(parent).Error, "parent")
}

func (s *GormStore) ListParents(ctx context.Context, schoolID uuid.UUID) ([]models.Parent, error) {
	var parents []models.Parent
	err := s.conn(ctx).Where("school_id = ?", schoolID).Order("full_name ASC, id ASC").Find(&parents).Error
	return parents, readError(err, "parent", nil)
}

func (s *GormStore) CreateClassRoom(ctx context.Context, room *models.ClassRoom) error {
	return writeError(s.conn(ctx).Create(room).Error, "class room")
}

func (s *GormStore) ListClassRooms(ctx context.Context, schoolID uuid.UUID) ([]models.ClassRoom, error) {
	var rooms []models.ClassRoom
	err := s.conn(ctx).Where("school_id = ?", schoolID).Order("name ASC").Find(&rooms).Error
	return rooms, readError(err, "class room", nil)
}

func (s *GormStore) CreateTerm(ctx context.Context, term *models.Term) error {
	return writeError(s.conn(ctx).Create(term).Error, "term")
}

func (s *GormStore) GetTerm(ctx context.Context, schoolID, termID uuid.UUID) (*models.Term, error) {
	var term models.Term
	if err := s.conn(ctx).First(&term, "id = ? AND school_id = ?", termID, schoolID).Error; err != nil {
		return nil, readError(err, "term", termID)
	}
	return &term, nil
}

func (s *GormStore) ListTerms(ctx context.Context, schoolID uuid.UUID) ([]models.Term, error) {
	var terms []models.Term
	err := s.conn(ctx).Where("school_id = ?", schoolID).Order("start_date ASC").Find(&terms).Error
	return terms, readError(err, "term", nil)
}
