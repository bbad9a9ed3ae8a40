package entity

import (
	"time"

	"github.com/google/uuid"
)

// SelectedFile is one uploaded PDF held in memory until generation.
type SelectedFile struct {
	Name    string
	Size    int64
	Content []byte
}

type GenerationStatus string

const (
	GenerationIdle       GenerationStatus = "idle"
	GenerationGenerating GenerationStatus = "generating"
	GenerationSucceeded  GenerationStatus = "succeeded"
	GenerationFailed     GenerationStatus = "failed"
)

// GenerationState is the tagged request state of a form.
// ArtifactId is set only when Status is succeeded; Message only when failed.
type GenerationState struct {
	Status     GenerationStatus
	ArtifactId uuid.UUID
	Message    string
}

// Form is the per-browser upload/generate form. It owns the selected file
// set, the generation request state and the single pending-action slot armed
// when generate is attempted without a session.
type Form struct {
	Id              uuid.UUID
	Files           []SelectedFile
	State           GenerationState
	PendingGenerate bool
	// Epoch increments on every submit and reset. A completion whose epoch
	// no longer matches the form's is stale and must be discarded.
	Epoch     uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewForm(id uuid.UUID) *Form {
	now := time.Now()
	return &Form{
		Id:        id,
		State:     GenerationState{Status: GenerationIdle},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a snapshot safe to read outside the owning service's lock.
// File contents are shared; they are never mutated after selection.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	copied := *f
	copied.Files = make([]SelectedFile, len(f.Files))
	copy(copied.Files, f.Files)
	return &copied
}

// TotalSize returns the summed byte size of the selected file set.
func (f *Form) TotalSize() int64 {
	var total int64
	for _, file := range f.Files {
		total += file.Size
	}
	return total
}
