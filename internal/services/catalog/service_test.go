package catalog

import (
	"context"
	"testing"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStudentDefaultsActive(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	schoolID := uuid.New()

	parent, err := svc.CreateParent(ctx, schoolID, ParentInput{FullName: "Mary Johnson", Email: "mary@example.com"})
	require.NoError(t, err)
	room, err := svc.CreateClassRoom(ctx, schoolID, "JSS1")
	require.NoError(t, err)

	in := StudentInput{ParentID: parent.ID, ClassRoomID: room.ID, AdmissionNumber: "ADM-1", FirstName: "Alice", LastName: "Johnson"}
	student, err := svc.CreateStudent(ctx, schoolID, in)
	require.NoError(t, err)
	assert.True(t, student.IsActive)

	_, err = svc.CreateStudent(ctx, schoolID, in)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "admission number is unique per school")

	inactive := false
	in.AdmissionNumber, in.IsActive = "ADM-2", &inactive
	_, err = svc.CreateStudent(ctx, schoolID, in)
	require.NoError(t, err)

	active, err := svc.ListStudents(ctx, schoolID, repository.StudentFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, student.ID, active[0].ID)
	assert.True(t, active[0].OutstandingBalance.IsZero())
}

func TestListStudentsCarriesOutstandingBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store)
	schoolID := uuid.New()

	parent, err := svc.CreateParent(ctx, schoolID, ParentInput{FullName: "Mary Johnson"})
	require.NoError(t, err)
	room, err := svc.CreateClassRoom(ctx, schoolID, "JSS1")
	require.NoError(t, err)
	alice, err := svc.CreateStudent(ctx, schoolID, StudentInput{ParentID: parent.ID, ClassRoomID: room.ID,
		AdmissionNumber: "ADM-1", FirstName: "Alice", LastName: "Johnson"})
	require.NoError(t, err)
	bob, err := svc.CreateStudent(ctx, schoolID, StudentInput{ParentID: parent.ID, ClassRoomID: room.ID,
		AdmissionNumber: "ADM-2", FirstName: "Bob", LastName: "Johnson"})
	require.NoError(t, err)

	for _, balance := range []string{"300.00", "200.50"} {
		require.NoError(t, store.CreateInvoice(ctx, &models.Invoice{
			ID: uuid.New(), SchoolID: schoolID, StudentID: alice.ID, TermID: uuid.New(),
			TotalAmount: decimal.RequireFromString(balance), Balance: decimal.RequireFromString(balance),
			Status: models.InvoiceUnpaid,
		}))
	}
	// Another school's invoice for the same student id is not counted.
	require.NoError(t, store.CreateInvoice(ctx, &models.Invoice{
		ID: uuid.New(), SchoolID: uuid.New(), StudentID: alice.ID, TermID: uuid.New(),
		TotalAmount: decimal.RequireFromString("999.00"), Balance: decimal.RequireFromString("999.00"),
		Status: models.InvoiceUnpaid,
	}))

	students, err := svc.ListStudents(ctx, schoolID, repository.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 2)

	balances := map[uuid.UUID]string{}
	for _, st := range students {
		balances[st.ID] = st.OutstandingBalance.StringFixed(2)
	}
	assert.Equal(t, "500.50", balances[alice.ID])
	assert.Equal(t, "0.00", balances[bob.ID])
}

func TestListParents(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	schoolID := uuid.New()

	_, err := svc.CreateParent(ctx, schoolID, ParentInput{FullName: "Zainab Bello"})
	require.NoError(t, err)
	_, err = svc.CreateParent(ctx, schoolID, ParentInput{FullName: "Mary Johnson"})
	require.NoError(t, err)
	_, err = svc.CreateParent(ctx, uuid.New(), ParentInput{FullName: "Other School"})
	require.NoError(t, err)

	parents, err := svc.ListParents(ctx, schoolID)
	require.NoError(t, err)
	require.Len(t, parents, 2)
	assert.Equal(t, "Mary Johnson", parents[0].FullName)
	assert.Equal(t, "Zainab Bello", parents[1].FullName)
}

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	schoolID := uuid.New()

	_, err := svc.CreateParent(ctx, schoolID, ParentInput{FullName: "X", Email: "not-an-email"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.CreateClassRoom(ctx, schoolID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingField))

	_, err = svc.CreateStudent(ctx, schoolID, StudentInput{FirstName: "Alice"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingField))

	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.CreateTerm(ctx, schoolID, TermInput{Name: "First Term", StartDate: start, EndDate: start.AddDate(0, 0, -1)})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestCreateFeeStructure(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	schoolID := uuid.New()

	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	term, err := svc.CreateTerm(ctx, schoolID, TermInput{Name: "First Term", StartDate: start, EndDate: start.AddDate(0, 3, 0)})
	require.NoError(t, err)
	room, err := svc.CreateClassRoom(ctx, schoolID, "JSS1")
	require.NoError(t, err)

	in := FeeStructureInput{ClassRoomID: room.ID, TermID: term.ID,
		TuitionFee: decimal.RequireFromString("45000"), OtherFees: decimal.RequireFromString("5000")}
	fee, err := svc.CreateFeeStructure(ctx, schoolID, in)
	require.NoError(t, err)
	assert.Equal(t, "50000.00", fee.Total().StringFixed(2))

	_, err = svc.CreateFeeStructure(ctx, schoolID, in)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	in.TermID = uuid.New()
	_, err = svc.CreateFeeStructure(ctx, schoolID, in)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	in.TermID, in.OtherFees = term.ID, decimal.RequireFromString("-1")
	_, err = svc.CreateFeeStructure(ctx, schoolID, in)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
