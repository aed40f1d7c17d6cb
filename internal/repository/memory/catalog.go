package memory

import (
	"context"
	"sort"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
)

func (s *Store) CreateSchool(ctx context.Context, school *models.School) error {
	defer s.guard()()
	for _, existing := range s.db.st.schools {
		if existing.Slug == school.Slug {
			return apperrors.Conflict("school", "school slug already exists", nil)
		}
	}
	newID(&school.ID)
	stamp(&school.CreatedAt)
	s.db.st.schools = append(s.db.st.schools, *school)
	return nil
}

func (s *Store) GetSchool(ctx context.Context, schoolID uuid.UUID) (*models.School, error) {
	defer s.guard()()
	for _, school := range s.db.st.schools {
		if school.ID == schoolID {
			return &school, nil
		}
	}
	return nil, apperrors.NotFound("school", schoolID)
}

func (s *Store) CreateParent(ctx context.Context, parent *models.Parent) error {
	defer s.guard()()
	newID(&parent.ID)
	stamp(&parent.CreatedAt)
	s.db.st.parents = append(s.db.st.parents, *parent)
	return nil
}

func (s *Store) ListParents(ctx context.Context, schoolID uuid.UUID) ([]models.Parent, error) {
	defer s.guard()()
	var parents []models.Parent
	for _, parent := range s.db.st.parents {
		if parent.SchoolID == schoolID {
			parents = append(parents, parent)
		}
	}
	sort.SliceStable(parents, func(i, j int) bool {
		if parents[i].FullName != parents[j].FullName {
			return parents[i].FullName < parents[j].FullName
		}
		return parents[i].ID.String() < parents[j].ID.String()
	})
	return parents, nil
}

func (s *Store) CreateClassRoom(ctx context.Context, room *models.ClassRoom) error {
	defer s.guard()()
	newID(&room.ID)
	stamp(&room.CreatedAt)
	s.db.st.classRooms = append(s.db.st.classRooms, *room)
	return nil
}

func (s *Store) ListClassRooms(ctx context.Context, schoolID uuid.UUID) ([]models.ClassRoom, error) {
	defer s.guard()()
	var rooms []models.ClassRoom
	for _, room := range s.db.st.classRooms {
		if room.SchoolID == schoolID {
			rooms = append(rooms, room)
		}
	}
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (s *Store) CreateTerm(ctx context.Context, term *models.Term) error {
	defer s.guard()()
	newID(&term.ID)
	stamp(&term.CreatedAt)
	s.db.st.terms = append(s.db.st.terms, *term)
	return nil
}

func (s *Store) GetTerm(ctx context.Context, schoolID, termID uuid.UUID) (*models.Term, error) {
	defer s.guard()()
	for _, term := range s.db.st.terms {
		if term.ID == termID && term.SchoolID == schoolID {
			return &term, nil
		}
	}
	return nil, apperrors.NotFound("term", termID)
}

func (s *Store) ListTerms(ctx context.Context, schoolID uuid.UUID) ([]models.Term, error) {
	defer s.guard()()
	var terms []models.Term
	for _, term := range s.db.st.terms {
		if term.SchoolID == schoolID {
			terms = append(terms, term)
		}
	}
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].StartDate.Before(terms[j].StartDate) })
	return terms, nil
}

func (s *Store) CreateStudent(ctx context.Context, student *models.Student) error {
	defer s.guard()()
	for _, existing := range s.db.st.students {
		if existing.SchoolID == student.SchoolID && existing.AdmissionNumber == student.AdmissionNumber {
			return apperrors.Conflict("student", "admission number already exists", nil).
				WithContext("admission_number", student.AdmissionNumber)
		}
	}
	newID(&student.ID)
	stamp(&student.CreatedAt)
	stamp(&student.UpdatedAt)
	s.db.st.students = append(s.db.st.students, *student)
	return nil
}

func (s *Store) GetStudent(ctx context.Context, schoolID, studentID uuid.UUID) (*models.Student, error) {
	defer s.guard()()
	for _, student := range s.db.st.students {
		if student.ID == studentID && student.SchoolID == schoolID {
			return &student, nil
		}
	}
	return nil, apperrors.NotFound("student", studentID)
}

func (s *Store) ListStudents(ctx context.Context, schoolID uuid.UUID, filter repository.StudentFilter) ([]models.Student, error) {
	defer s.guard()()
	var students []models.Student
	for _, student := range s.db.st.students {
		if student.SchoolID != schoolID {
			continue
		}
		if filter.ActiveOnly && !student.IsActive {
			continue
		}
		if filter.ClassRoomID != nil && student.ClassRoomID != *filter.ClassRoomID {
			continue
		}
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].ID.String() < students[j].ID.String()
	})
	return students, nil
}

func (s *Store) CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	defer s.guard()()
	for _, existing := range s.db.st.fees {
		if existing.SchoolID == fee.SchoolID && existing.ClassRoomID == fee.ClassRoomID && existing.TermID == fee.TermID {
			return apperrors.Conflict("fee structure", "fee structure already exists for class and term", nil)
		}
	}
	newID(&fee.ID)
	stamp(&fee.CreatedAt)
	stamp(&fee.UpdatedAt)
	s.db.st.fees = append(s.db.st.fees, *fee)
	return nil
}

func (s *Store) FindFeeStructure(ctx context.Context, schoolID, classRoomID, termID uuid.UUID) (*models.FeeStructure, error) {
	defer s.guard()()
	for _, fee := range s.db.st.fees {
		if fee.SchoolID == schoolID && fee.ClassRoomID == classRoomID && fee.TermID == termID {
			return &fee, nil
		}
	}
	return nil, apperrors.NotFound("fee structure", termID)
}

func (s *Store) ListFeeStructures(ctx context.Context, schoolID uuid.UUID) ([]models.FeeStructure, error) {
	defer s.guard()()
	var fees []models.FeeStructure
	for _, fee := range s.db.st.fees {
		if fee.SchoolID == schoolID {
			fees = append(fees, fee)
		}
	}
	return fees, nil
}
