package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/ports"
)

// EditService runs the multi-step add/edit/delete conversation as one
// explicit state machine per (admin, chat) key. Drafts buffer text verbatim
// and nothing is embedded until commit, so abandoned drafts cost no quota.
//
// Sessions expire lazily: every access first discards a draft older than the
// timeout, so the triggering event observes an idle session. A new start
// command while a draft is live supersedes it: last command wins.
type EditService struct {
	mu       sync.Mutex
	sessions map[domain.SessionKey]*domain.EditSession

	// commitMu serializes the load-modify-save cycle on the record store.
	commitMu sync.Mutex
	nextID   domain.RecordID

	records ports.RecordStore
	index   *IndexService
	auth    ports.Authorizer
	clock   ports.Clock
	timeout time.Duration
}

func NewEditService(records ports.RecordStore, index *IndexService, auth ports.Authorizer, clock ports.Clock, timeout time.Duration) *EditService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &EditService{
		sessions: make(map[domain.SessionKey]*domain.EditSession),
		records:  records,
		index:    index,
		auth:     auth,
		clock:    clock,
		timeout:  timeout,
	}
}

// StartAdd opens an add flow with the question supplied up front.
func (s *EditService) StartAdd(ctx context.Context, key domain.SessionKey, question string) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}
	if domain.NormalizeText(question) == "" {
		return "", fmt.Errorf("question text is required")
	}

	s.putSession(&domain.EditSession{
		Key:           key,
		State:         domain.SessionAwaitingAnswer,
		Op:            domain.OpAdd,
		DraftQuestion: question,
		CreatedAt:     s.clock.Now(),
	})

	return "Reply with the answer for this question.", nil
}

// StartEditQuestion opens a flow replacing a record's question text.
func (s *EditService) StartEditQuestion(ctx context.Context, key domain.SessionKey, id domain.RecordID) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}

	record, err := s.findRecord(ctx, id)
	if err != nil {
		return "", err
	}

	s.putSession(&domain.EditSession{
		Key:         key,
		State:       domain.SessionAwaitingQuestion,
		Op:          domain.OpEditQuestion,
		DraftAnswer: record.Answer,
		TargetID:    id,
		CreatedAt:   s.clock.Now(),
	})

	return fmt.Sprintf("Reply with the new question text for Q&A #%d.", id), nil
}

// StartEditAnswer opens a flow replacing a record's answer text.
func (s *EditService) StartEditAnswer(ctx context.Context, key domain.SessionKey, id domain.RecordID) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}

	record, err := s.findRecord(ctx, id)
	if err != nil {
		return "", err
	}

	s.putSession(&domain.EditSession{
		Key:           key,
		State:         domain.SessionAwaitingAnswer,
		Op:            domain.OpEditAnswer,
		DraftQuestion: record.Question,
		TargetID:      id,
		CreatedAt:     s.clock.Now(),
	})

	return fmt.Sprintf("Reply with the new answer for Q&A #%d.", id), nil
}

// StartDelete goes straight to the confirmation step.
func (s *EditService) StartDelete(ctx context.Context, key domain.SessionKey, id domain.RecordID) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}

	record, err := s.findRecord(ctx, id)
	if err != nil {
		return "", err
	}

	s.putSession(&domain.EditSession{
		Key:           key,
		State:         domain.SessionAwaitingConfirmation,
		Op:            domain.OpDelete,
		DraftQuestion: record.Question,
		DraftAnswer:   record.Answer,
		TargetID:      id,
		CreatedAt:     s.clock.Now(),
	})

	return fmt.Sprintf("Delete Q&A #%d (%q)? Confirm or cancel.", id, truncate(record.Question, 60)), nil
}

// Reply advances a session waiting on free text.
func (s *EditService) Reply(ctx context.Context, key domain.SessionKey, text string) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}
	if domain.NormalizeText(text) == "" {
		return "", fmt.Errorf("reply text is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.liveSessionLocked(key)
	if session == nil {
		return "", domain.ErrNoPendingOperation
	}

	switch session.State {
	case domain.SessionAwaitingQuestion:
		session.DraftQuestion = text
	case domain.SessionAwaitingAnswer:
		session.DraftAnswer = text
	default:
		return "", domain.ErrNoPendingOperation
	}

	session.State = domain.SessionAwaitingConfirmation
	return fmt.Sprintf("Q: %s\nA: %s\nConfirm to save, or cancel.", truncate(session.DraftQuestion, 120), truncate(session.DraftAnswer, 120)), nil
}

// Confirm commits the pending operation and destroys the session. A second
// Confirm after the session returned to idle reports no pending operation.
func (s *EditService) Confirm(ctx context.Context, key domain.SessionKey) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}

	s.mu.Lock()
	session := s.liveSessionLocked(key)
	if session == nil || session.State != domain.SessionAwaitingConfirmation {
		s.mu.Unlock()
		return "", domain.ErrNoPendingOperation
	}
	committed := *session
	delete(s.sessions, key)
	s.mu.Unlock()

	// The session is already gone: a commit failure does not resurrect the
	// draft, it surfaces to the caller instead.
	reply, err := s.apply(ctx, committed)
	if err != nil {
		return "", err
	}

	// Rebuild failures must not mask a completed commit; degraded coverage
	// is reported separately.
	if err := s.index.Rebuild(ctx); err != nil {
		var incomplete *domain.IndexIncompleteError
		if errors.As(err, &incomplete) {
			log.Printf("Index rebuilt with degraded coverage after commit: %v", incomplete)
		} else {
			log.Printf("Index rebuild failed after commit, previous snapshot stays live: %v", err)
		}
	}

	return reply, nil
}

// Cancel discards the draft with no side effects.
func (s *EditService) Cancel(ctx context.Context, key domain.SessionKey) (string, error) {
	if err := s.authorize(key); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.liveSessionLocked(key) == nil {
		return "", domain.ErrNoPendingOperation
	}
	delete(s.sessions, key)

	return "Operation cancelled.", nil
}

// State reports the session's current state, expiring it first.
func (s *EditService) State(key domain.SessionKey) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session := s.liveSessionLocked(key); session != nil {
		return session.State
	}
	return domain.SessionIdle
}

func (s *EditService) apply(ctx context.Context, session domain.EditSession) (string, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	records, err := s.records.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}

	if next := domain.NextRecordID(records); next > s.nextID {
		s.nextID = next
	}

	var reply string
	switch session.Op {
	case domain.OpAdd:
		record := domain.QARecord{
			ID:       s.nextID,
			Question: session.DraftQuestion,
			Answer:   session.DraftAnswer,
		}
		if err := record.Validate(); err != nil {
			return "", fmt.Errorf("new record: %w", err)
		}
		s.nextID++
		records = append(records, record)
		reply = fmt.Sprintf("Added Q&A #%d.", record.ID)

	case domain.OpEditQuestion, domain.OpEditAnswer:
		idx := recordIndex(records, session.TargetID)
		if idx < 0 {
			return "", fmt.Errorf("record #%d: %w", session.TargetID, domain.ErrRecordNotFound)
		}
		records[idx].Question = session.DraftQuestion
		records[idx].Answer = session.DraftAnswer
		if err := records[idx].Validate(); err != nil {
			return "", fmt.Errorf("updated record: %w", err)
		}
		reply = fmt.Sprintf("Updated Q&A #%d.", session.TargetID)

	case domain.OpDelete:
		idx := recordIndex(records, session.TargetID)
		if idx < 0 {
			return "", fmt.Errorf("record #%d: %w", session.TargetID, domain.ErrRecordNotFound)
		}
		records = append(records[:idx], records[idx+1:]...)
		reply = fmt.Sprintf("Deleted Q&A #%d.", session.TargetID)

	default:
		return "", fmt.Errorf("unsupported operation %q", session.Op)
	}

	if err := s.records.Save(ctx, records); err != nil {
		return "", fmt.Errorf("save records: %w", err)
	}

	return reply, nil
}

func (s *EditService) authorize(key domain.SessionKey) error {
	if s.auth != nil && !s.auth.IsAuthorized(key.AdminID, key.ChatID) {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *EditService) putSession(session *domain.EditSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Key] = session
}

// liveSessionLocked returns the session for key, discarding it first when
// the timeout has elapsed. Callers hold s.mu.
func (s *EditService) liveSessionLocked(key domain.SessionKey) *domain.EditSession {
	session, ok := s.sessions[key]
	if !ok {
		return nil
	}
	if session.Expired(s.clock.Now(), s.timeout) {
		delete(s.sessions, key)
		return nil
	}
	return session
}

func (s *EditService) findRecord(ctx context.Context, id domain.RecordID) (domain.QARecord, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return domain.QARecord{}, fmt.Errorf("load records: %w", err)
	}

	if idx := recordIndex(records, id); idx >= 0 {
		return records[idx], nil
	}
	return domain.QARecord{}, fmt.Errorf("record #%d: %w", id, domain.ErrRecordNotFound)
}

func recordIndex(records []domain.QARecord, id domain.RecordID) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
