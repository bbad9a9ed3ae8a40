// FILE: internal/service/session_service.go
package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/internal/repository/memory"
	"github.com/ryounan4/Cramify/pkg/identity"
)

type ISessionService interface {
	Create(ctx context.Context, res *identity.AuthResult, provider entity.SessionProvider) *entity.Session
	Current(ctx context.Context, sessionID uuid.UUID) (*entity.Session, bool)
	Destroy(ctx context.Context, sessionID uuid.UUID)
	// Token mints a fresh bearer ID token for the session. Failures are
	// swallowed: the caller gets ("", false) and the gate reopens on next use.
	Token(ctx context.Context, sessionID uuid.UUID) (string, bool)
	// Watch hands out a session change stream plus a release func. The
	// release func must be called when the subscriber goes away.
	Watch() (<-chan entity.SessionEvent, func())
	// Ready reports whether the initial session state notification has been
	// published. Clients show a loading indicator until it is.
	Ready() bool
}

type sessionService struct {
	sessions *memory.SessionRepository
	provider identity.Provider

	mu          sync.Mutex
	subscribers map[int]chan entity.SessionEvent
	nextSubID   int
	ready       bool
}

func NewSessionService(sessions *memory.SessionRepository, provider identity.Provider) ISessionService {
	s := &sessionService{
		sessions:    sessions,
		provider:    provider,
		subscribers: make(map[int]chan entity.SessionEvent),
	}

	// Publish the initial "no session" state so watchers never wait on an
	// empty stream. Ready flips only after this runs.
	s.publish(entity.SessionEvent{
		Type:       entity.SessionEventInitial,
		OccurredAt: time.Now(),
	})
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()

	return s
}

func (s *sessionService) Create(ctx context.Context, res *identity.AuthResult, provider entity.SessionProvider) *entity.Session {
	session := &entity.Session{
		Id:           uuid.New(),
		Uid:          res.Uid,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		Provider:     provider,
		RefreshToken: res.RefreshToken,
		CreatedAt:    time.Now(),
	}
	s.sessions.Save(session)

	s.publish(entity.SessionEvent{
		Type:       entity.SessionEventSignedIn,
		SessionId:  session.Id,
		Email:      session.Email,
		OccurredAt: time.Now(),
	})
	return session
}

func (s *sessionService) Current(ctx context.Context, sessionID uuid.UUID) (*entity.Session, bool) {
	if sessionID == uuid.Nil {
		return nil, false
	}
	return s.sessions.Get(sessionID)
}

func (s *sessionService) Destroy(ctx context.Context, sessionID uuid.UUID) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return
	}
	s.sessions.Delete(sessionID)

	s.publish(entity.SessionEvent{
		Type:       entity.SessionEventSignedOut,
		SessionId:  session.Id,
		Email:      session.Email,
		OccurredAt: time.Now(),
	})
}

func (s *sessionService) Token(ctx context.Context, sessionID uuid.UUID) (string, bool) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return "", false
	}

	res, err := s.provider.RefreshIDToken(ctx, session.RefreshToken)
	if err != nil {
		// Never propagated: a missing token just re-triggers the gate.
		log.Printf("[Session Service] Token mint failed for session %s: %v", sessionID, err)
		return "", false
	}

	// The provider rotates refresh tokens; keep the newest one.
	if res.RefreshToken != "" && res.RefreshToken != session.RefreshToken {
		session.RefreshToken = res.RefreshToken
		s.sessions.Save(session)
	}

	return res.IDToken, true
}

func (s *sessionService) Watch() (<-chan entity.SessionEvent, func()) {
	ch := make(chan entity.SessionEvent, 16)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, release
}

func (s *sessionService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *sessionService) publish(event entity.SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop rather than block sign-in.
		}
	}
}
