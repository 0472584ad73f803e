package holdstore

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type sessionKey struct {
	sessionID string
	formID    int64
}

// Memory хранилище удержаний в памяти процесса
type Memory struct {
	mu        sync.Mutex
	byToken   map[domain.HoldToken]*domain.Hold
	bySession map[sessionKey]domain.HoldToken
}

// NewMemory создает пустое хранилище удержаний
func NewMemory() *Memory {
	return &Memory{
		byToken:   make(map[domain.HoldToken]*domain.Hold),
		bySession: make(map[sessionKey]domain.HoldToken),
	}
}

// Save сохраняет удержание и делает его текущим для пары (сессия, форма).
// Возвращает токен вытесненного удержания этой пары, если оно было.
func (m *Memory) Save(_ context.Context, hold *domain.Hold) (domain.HoldToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey{hold.SessionID, hold.FormID}
	prev := m.bySession[key]
	m.byToken[hold.Token] = cloneHold(hold)
	m.bySession[key] = hold.Token

	if prev == hold.Token {
		return "", nil
	}
	return prev, nil
}

// Get получает удержание по токену
func (m *Memory) Get(_ context.Context, token domain.HoldToken) (*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.byToken[token]
	if !ok {
		return nil, ErrHoldNotFound
	}
	return cloneHold(h), nil
}

// GetBySession получает текущее удержание сессии на форме
func (m *Memory) GetBySession(_ context.Context, sessionID string, formID int64) (*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.bySession[sessionKey{sessionID, formID}]
	if !ok {
		return nil, ErrHoldNotFound
	}
	h, ok := m.byToken[token]
	if !ok {
		return nil, ErrHoldNotFound
	}
	return cloneHold(h), nil
}

// Delete удаляет удержание. true только у того вызова, который действительно его удалил.
func (m *Memory) Delete(_ context.Context, hold *domain.Hold) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byToken[hold.Token]; !ok {
		return false, nil
	}
	delete(m.byToken, hold.Token)

	key := sessionKey{hold.SessionID, hold.FormID}
	if m.bySession[key] == hold.Token {
		delete(m.bySession, key)
	}
	return true, nil
}

// List возвращает все удержания
func (m *Memory) List(_ context.Context) ([]*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	holds := make([]*domain.Hold, 0, len(m.byToken))
	for _, h := range m.byToken {
		holds = append(holds, cloneHold(h))
	}
	return holds, nil
}

func cloneHold(h *domain.Hold) *domain.Hold {
	c := *h
	c.Claims = append([]domain.SeatClaim(nil), h.Claims...)
	return &c
}
