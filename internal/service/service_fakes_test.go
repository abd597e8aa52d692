package service

import (
	"context"
	"io"
	"sync"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/entity"
	"audibleai-be/internal/repository/contract"
	"audibleai-be/internal/repository/specification"
	"audibleai-be/internal/repository/unitofwork"
	"audibleai-be/pkg/llm"
	"audibleai-be/pkg/tts"

	"github.com/google/uuid"
)

// ---- logger ----

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// ---- delivery channel ----

type capturedEvent struct {
	UserID uuid.UUID
	Event  string
	Data   map[string]interface{}
}

type fakeChannel struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakeChannel) Publish(userID uuid.UUID, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, _ := data.(map[string]interface{})
	f.events = append(f.events, capturedEvent{UserID: userID, Event: event, Data: payload})
}

func (f *fakeChannel) captured() []capturedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]capturedEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeChannel) byEvent(name string) []capturedEvent {
	var out []capturedEvent
	for _, e := range f.captured() {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// ---- in-memory store ----

type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.ChatSession
	messages []*entity.Message

	failCreateMessage bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*entity.User),
		sessions: make(map[uuid.UUID]*entity.ChatSession),
	}
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *user
	r.s.users[user.Id] = &copied
	return nil
}

func (r *memUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if userMatches(u, specs) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r *memUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		}
	}
	return true
}

type memSessionRepo struct{ s *memStore }

func (r *memSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *session
	r.s.sessions[session.Id] = &copied
	return nil
}

func (r *memSessionRepo) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[id]; ok {
		sess.Title = title
	}
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r *memSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sessionMatches(sess, specs) {
			copied := *sess
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ChatSession
	for _, sess := range r.s.sessions {
		if sessionMatches(sess, specs) {
			copied := *sess
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func sessionMatches(sess *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if sess.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if sess.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

type memMessageRepo struct{ s *memStore }

type messageStoreError struct{}

func (messageStoreError) Error() string { return "message store unavailable" }

func (r *memMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreateMessage {
		return messageStoreError{}
	}
	copied := *message
	r.s.messages = append(r.s.messages, &copied)
	return nil
}

func (r *memMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.s.messages {
		if messageMatches(m, specs) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memMessageRepo) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.SessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

func (r *memMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func messageMatches(m *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.BySessionID:
			if m.SessionId != s.SessionID {
				return false
			}
		}
	}
	return true
}

// ---- unit of work ----

type memUow struct{ s *memStore }

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }

func (u *memUow) UserRepository() contract.UserRepository {
	return &memUserRepo{s: u.s}
}

func (u *memUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &memSessionRepo{s: u.s}
}

func (u *memUow) MessageRepository() contract.MessageRepository {
	return &memMessageRepo{s: u.s}
}

type memFactory struct{ s *memStore }

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{s: f.s}
}

// ---- llm ----

type scriptedStream struct {
	chunks []string
	errAt  int // index at which Recv fails; -1 for never
	err    error
	pos    int
}

func (s *scriptedStream) Recv() (string, error) {
	if s.errAt >= 0 && s.pos == s.errAt {
		return "", s.err
	}
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *scriptedStream) Close() error { return nil }

type scriptedLLM struct {
	chunks    []string
	streamErr error
	errAt     int

	generated string
	genErr    error

	mu      sync.Mutex
	prompts []string
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	return l.generated, l.genErr
}

func (l *scriptedLLM) promptCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func (l *scriptedLLM) prompt(i int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prompts[i]
}

func (l *scriptedLLM) GenerateStream(ctx context.Context, prompt string) (llm.Stream, error) {
	errAt := -1
	if l.streamErr != nil {
		errAt = l.errAt
	}
	return &scriptedStream{chunks: l.chunks, errAt: errAt, err: l.streamErr}, nil
}

// ---- tts ----

type scriptedSpeech struct {
	audio string
	err   error
	last  tts.SynthesisRequest
}

func (s *scriptedSpeech) Synthesize(ctx context.Context, req tts.SynthesisRequest) (string, error) {
	s.last = req
	return s.audio, s.err
}

// ---- title publisher ----

type capturingTitlePublisher struct {
	mu   sync.Mutex
	jobs []*dto.TitleJobMessage
}

func (p *capturingTitlePublisher) PublishTitleJob(ctx context.Context, job *dto.TitleJobMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}
