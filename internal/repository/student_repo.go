package repository

import (
	"context"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
)

func (s *GormStore) CreateStudent(ctx context.Context, student *models.Student) error {
	return writeError(s.conn(ctx).Create(student).Error, "student")
}

func (s *GormStore) GetStudent(ctx context.Context, schoolID, studentID uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := s.conn(ctx).First(&student, "id = ? AND school_id = ?", studentID, schoolID).Error; err != nil {
		return nil, readError(err, "student", studentID)
	}
	return &student, nil
}

func (s *GormStore) ListStudents(ctx context.Context, schoolID uuid.UUID, filter StudentFilter) ([]models.Student, error) {
	var students []models.Student

	query := s.conn(ctx).Where("school_id = ?", schoolID)
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.ClassRoomID != nil {
		query = query.Where("class_room_id = ?", *filter.ClassRoomID)
	}

	err := query.Order("id ASC").Find(&students).Error
	return students, readError(err, "student", nil)
}

func (s *GormStore) CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	return writeError(s.conn(ctx).Create(fee).Error, "fee structure")
}

func (s *GormStore) FindFeeStructure(ctx context.Context, schoolID, classRoomID, termID uuid.UUID) (*models.FeeStructure, error) {
	var fee models.FeeStructure
	err := s.conn(ctx).
		Where("school_id = ? AND class_room_id = ? AND term_id = ?", schoolID, classRoomID, termID).
		First(&fee).Error
	if err != nil {
		return nil, readError(err, "fee structure", termID)
	}
	return &fee, nil
}

func (s *GormStore) ListFeeStructures(ctx context.Context, schoolID uuid.UUID) ([]models.FeeStructure, error) {
	var fees []models.FeeStructure
	err := s.conn(ctx).Where("school_id = ?", schoolID).Order("created_at ASC").Find(&fees).Error
	return fees, readError(err, "fee structure", nil)
}
