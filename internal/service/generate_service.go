// FILE: internal/service/generate_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/internal/repository/memory"
	"github.com/ryounan4/Cramify/pkg/backend"
)

// ErrSessionRequired signals the gate: generate was attempted without a
// session, the pending slot is armed and no request was sent.
var ErrSessionRequired = errors.New("session required")

// ErrGenerationInFlight rejects a second generate while one is outstanding.
var ErrGenerationInFlight = errors.New("a generation request is already in progress")

// ValidationError is a pre-flight rejection mirroring the backend's own
// request validation, failed locally before spending a backend round trip.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// failureMessage is the single user-facing message for every backend or
// transport failure.
const failureMessage = "Failed to generate cheat sheet"

// Request limits enforced by the generation backend; checked here first.
const (
	maxFiles    = 10
	maxFileSize = 50 * 1024 * 1024
)

var pdfMagic = []byte("%PDF")

// Notifier pushes form state transitions to connected clients.
type Notifier interface {
	NotifyState(formID uuid.UUID, state *dto.StateResponse)
}

type IGenerateService interface {
	// Select replaces the form's selected file set. Replacement, never
	// accumulation.
	Select(ctx context.Context, formID uuid.UUID, files []entity.SelectedFile) *entity.Form
	// Generate runs the upload/generate request. With a nil session it arms
	// the pending slot and returns ErrSessionRequired without any network
	// activity.
	Generate(ctx context.Context, formID uuid.UUID, session *entity.Session) (*entity.Form, error)
	// Resume executes the pending generate exactly once; the slot is cleared
	// before execution. Reports false when no generate was pending.
	Resume(ctx context.Context, formID uuid.UUID, session *entity.Session) (*entity.Form, bool)
	// Dismiss clears the pending slot without executing it.
	Dismiss(ctx context.Context, formID uuid.UUID) *entity.Form
	// Reset releases the artifact, clears the file set and returns to idle.
	Reset(ctx context.Context, formID uuid.UUID) *entity.Form
	State(ctx context.Context, formID uuid.UUID) *entity.Form
}

type generateService struct {
	forms     *memory.FormRepository
	artifacts *memory.ArtifactRepository
	backend   *backend.Client
	sessions  ISessionService
	notifier  Notifier // may be nil

	// Guards form state transitions and the pending slot. The backend call
	// itself runs outside the lock.
	mu sync.Mutex
}

func NewGenerateService(
	forms *memory.FormRepository,
	artifacts *memory.ArtifactRepository,
	backendClient *backend.Client,
	sessions ISessionService,
	notifier Notifier,
) IGenerateService {
	return &generateService{
		forms:     forms,
		artifacts: artifacts,
		backend:   backendClient,
		sessions:  sessions,
		notifier:  notifier,
	}
}

func (s *generateService) Select(ctx context.Context, formID uuid.UUID, files []entity.SelectedFile) *entity.Form {
	s.mu.Lock()
	form := s.forms.GetOrCreate(formID)
	form.Files = files
	s.forms.Save(form)
	s.notify(form)
	snapshot := form.Clone()
	s.mu.Unlock()

	log.Printf("[Generate Service] Form %s selected %d file(s)", formID, len(files))
	return snapshot
}

func (s *generateService) Generate(ctx context.Context, formID uuid.UUID, session *entity.Session) (*entity.Form, error) {
	s.mu.Lock()
	form := s.forms.GetOrCreate(formID)

	if session == nil {
		form.PendingGenerate = true
		s.forms.Save(form)
		s.notify(form)
		snapshot := form.Clone()
		s.mu.Unlock()

		log.Printf("[Generate Service] Form %s has no session, opening gate", formID)
		return snapshot, ErrSessionRequired
	}

	if form.State.Status == entity.GenerationGenerating {
		snapshot := form.Clone()
		s.mu.Unlock()
		return snapshot, ErrGenerationInFlight
	}

	if reason := validateFiles(form.Files); reason != "" {
		form.State = entity.GenerationState{Status: entity.GenerationFailed, Message: reason}
		s.forms.Save(form)
		s.notify(form)
		snapshot := form.Clone()
		s.mu.Unlock()

		log.Printf("[Generate Service] Form %s rejected pre-flight: %s", formID, reason)
		return snapshot, &ValidationError{Reason: reason}
	}

	// A regenerate replaces the previous artifact; release it now.
	if form.State.ArtifactId != uuid.Nil {
		s.artifacts.Release(form.State.ArtifactId)
	}

	form.PendingGenerate = false
	form.State = entity.GenerationState{Status: entity.GenerationGenerating}
	form.Epoch++
	epoch := form.Epoch
	s.forms.Save(form)

	files := make([]backend.File, len(form.Files))
	for i, f := range form.Files {
		files[i] = backend.File{Name: f.Name, Content: f.Content}
	}
	s.notify(form)
	s.mu.Unlock()

	log.Printf("[Generate Service] Form %s generating from %d file(s)...", formID, len(files))

	// Token minting failures are swallowed; the backend treats the bearer
	// as optional.
	bearer, _ := s.sessions.Token(ctx, session.Id)

	pdf, err := s.backend.Generate(ctx, files, bearer)

	s.mu.Lock()
	current, found := s.forms.Get(formID)
	if !found || current.Epoch != epoch {
		// The form was reset (or expired) while the request was in flight.
		// The user asked for idle; the late result is discarded, never stored.
		log.Printf("[Generate Service] Form %s completion discarded, form was reset mid-flight", formID)
		snapshot := current.Clone()
		s.mu.Unlock()
		return snapshot, nil
	}
	form = current
	if err != nil {
		log.Printf("[Generate Service] ERROR - Form %s generation failed: %v", formID, err)
		form.State = entity.GenerationState{Status: entity.GenerationFailed, Message: failureMessage}
	} else {
		artifactID := s.artifacts.Store(pdf)
		form.State = entity.GenerationState{Status: entity.GenerationSucceeded, ArtifactId: artifactID}
		log.Printf("[Generate Service] ✅ Form %s generated artifact %s (%d bytes)", formID, artifactID, len(pdf))
	}
	s.forms.Save(form)
	s.notify(form)
	snapshot := form.Clone()
	s.mu.Unlock()

	return snapshot, nil
}

func (s *generateService) Resume(ctx context.Context, formID uuid.UUID, session *entity.Session) (*entity.Form, bool) {
	s.mu.Lock()
	form, found := s.forms.Get(formID)
	if !found || !form.PendingGenerate || session == nil {
		snapshot := form.Clone()
		s.mu.Unlock()
		return snapshot, false
	}

	// Clear the slot before executing so the deferred call can never run
	// twice.
	form.PendingGenerate = false
	s.forms.Save(form)
	s.mu.Unlock()

	log.Printf("[Generate Service] Form %s resuming deferred generate", formID)
	resumed, _ := s.Generate(ctx, formID, session)
	return resumed, true
}

func (s *generateService) Dismiss(ctx context.Context, formID uuid.UUID) *entity.Form {
	s.mu.Lock()
	form := s.forms.GetOrCreate(formID)
	form.PendingGenerate = false
	s.forms.Save(form)
	s.notify(form)
	snapshot := form.Clone()
	s.mu.Unlock()

	log.Printf("[Generate Service] Form %s dismissed the gate", formID)
	return snapshot
}

func (s *generateService) Reset(ctx context.Context, formID uuid.UUID) *entity.Form {
	s.mu.Lock()
	form := s.forms.GetOrCreate(formID)
	if form.State.ArtifactId != uuid.Nil {
		s.artifacts.Release(form.State.ArtifactId)
	}
	form.Files = nil
	form.PendingGenerate = false
	form.State = entity.GenerationState{Status: entity.GenerationIdle}
	// Invalidate any in-flight generate so its completion cannot resurrect
	// the form.
	form.Epoch++
	s.forms.Save(form)
	s.notify(form)
	snapshot := form.Clone()
	s.mu.Unlock()

	log.Printf("[Generate Service] Form %s reset", formID)
	return snapshot
}

func (s *generateService) State(ctx context.Context, formID uuid.UUID) *entity.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms.GetOrCreate(formID).Clone()
}

func (s *generateService) notify(form *entity.Form) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyState(form.Id, dto.ToStateResponse(form))
}

func validateFiles(files []entity.SelectedFile) string {
	if len(files) == 0 {
		return "No files uploaded"
	}
	if len(files) > maxFiles {
		return fmt.Sprintf("Maximum %d files allowed", maxFiles)
	}
	for _, f := range files {
		if f.Name == "" {
			return "File has no name"
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			return fmt.Sprintf("Invalid file type: %s. Only PDF files allowed.", f.Name)
		}
		if f.Size > maxFileSize {
			return fmt.Sprintf("File too large: %s. Maximum size is 50MB.", f.Name)
		}
		if len(f.Content) < len(pdfMagic) || !bytes.HasPrefix(f.Content, pdfMagic) {
			return fmt.Sprintf("Invalid PDF file: %s", f.Name)
		}
	}
	return ""
}
