package matching

import (
	"math"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
)

const (
	// AutoMatchThreshold must be strictly exceeded for unattended payment creation.
	AutoMatchThreshold = 85.0
	ReviewThreshold    = 60.0
	// AmountBoost is added when an open invoice's balance equals the transaction amount.
	AmountBoost = 20.0
)

// Candidate is one active student considered for a transaction.
type Candidate struct {
	StudentID uuid.UUID
	Name      string
}

// Result is the scoring outcome for one transaction. It is stored as the log's match details.
type Result struct {
	StudentID     *uuid.UUID                  `json:"student_id,omitempty"`
	StudentName   string                      `json:"student_name,omitempty"`
	NameScore     float64                     `json:"name_score"`
	AmountMatched bool                        `json:"amount_matched"`
	Confidence    float64                     `json:"confidence"`
	Status        models.ReconciliationStatus `json:"status"`
}

// BestCandidate returns the highest scoring candidate for the narration. On ties the earliest
// candidate in pool wins, so callers control the tie-break through pool order.
func BestCandidate(narration string, pool []Candidate) (Candidate, float64, bool) {
	if len(pool) == 0 {
		return Candidate{}, 0, false
	}

	best, bestScore := pool[0], PartialRatio(narration, pool[0].Name)
	for _, c := range pool[1:] {
		if bestScore >= 100 {
			break
		}
		if score := PartialRatio(narration, c.Name); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore, true
}

// Confidence applies the amount correlation boost, capped at 100.
func Confidence(nameScore float64, amountMatched bool) float64 {
	if amountMatched {
		return math.Min(100, nameScore+AmountBoost)
	}
	return nameScore
}

// Classify maps a confidence onto its tier.
func Classify(confidence float64) models.ReconciliationStatus {
	switch {
	case confidence > AutoMatchThreshold:
		return models.StatusAutoMatched
	case confidence >= ReviewThreshold:
		return models.StatusManualReview
	default:
		return models.StatusUnmatched
	}
}

// Evaluate scores a narration against the pool. amountMatched is consulted only for the winning
// candidate and reports whether that student has an open invoice whose balance equals the amount.
func Evaluate(narration string, pool []Candidate, amountMatched func(studentID uuid.UUID) (bool, error)) (Result, error) {
	best, score, ok := BestCandidate(narration, pool)
	if !ok {
		return Result{Confidence: 0, Status: models.StatusUnmatched}, nil
	}

	matched, err := amountMatched(best.StudentID)
	if err != nil {
		return Result{}, err
	}

	studentID := best.StudentID
	confidence := Confidence(score, matched)
	return Result{
		StudentID:     &studentID,
		StudentName:   best.Name,
		NameScore:     score,
		AmountMatched: matched,
		Confidence:    confidence,
		Status:        Classify(confidence),
	}, nil
}
