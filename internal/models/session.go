package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type SessionPhase string

const (
	PhaseUploading SessionPhase = "uploading"
	PhaseReviewing SessionPhase = "reviewing"
	PhaseSubmitted SessionPhase = "submitted"
)

// UploadedImage is a cheque image held in memory for the duration of the step.
type UploadedImage struct {
	FileName string
	Size     int64
	Data     []byte
}

// IngestionSession is the server-held state of one cheque-upload step
// instance. Records and Images stay in lockstep by index once extraction has
// run; EditFlags mirrors Records and carries UI-only state.
type IngestionSession struct {
	mu sync.Mutex

	ID            uuid.UUID
	QuotationID   uuid.UUID
	ExpectedCount int
	PaymentMethod string
	Queue         []UploadedImage
	Records       []ChequeRecord
	Images        []UploadedImage
	EditFlags     []bool
	Submitted     bool
	Processing    bool
	Generation    uint64
	CreatedAt     time.Time
}

// Lock acquires the session mutex. Handlers run concurrently against the
// same session id, so every read-modify cycle goes through here.
func (s *IngestionSession) Lock() { s.mu.Lock() }

func (s *IngestionSession) Unlock() { s.mu.Unlock() }

// Phase derives the informal step phase from current state.
func (s *IngestionSession) Phase() SessionPhase {
	switch {
	case s.Submitted:
		return PhaseSubmitted
	case len(s.Records) > 0:
		return PhaseReviewing
	default:
		return PhaseUploading
	}
}
