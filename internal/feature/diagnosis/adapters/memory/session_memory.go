// Package memory はプロセス内メモリに診断セッションを保持するSessionRepository実装を提供します。
// Redisが使えない環境やCLIで使用します。
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

type item struct {
	session   entity.Session
	expiresAt time.Time
}

// SessionMemory はTTL付きのインメモリSessionRepositoryです。
// 期限切れのセッションはアクセス時に削除されます。
type SessionMemory struct {
	mu    sync.Mutex
	items map[string]item
	ttl   time.Duration
	now   func() time.Time
}

var _ usecase.SessionRepository = (*SessionMemory)(nil)

// NewSessionMemory はSessionMemoryの新しいインスタンスを生成します。ttlが0以下の場合は期限なしです。
func NewSessionMemory(ttl time.Duration) *SessionMemory {
	return &SessionMemory{
		items: make(map[string]item),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create は新しいセッションを保存します。
func (m *SessionMemory) Create(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	if _, ok := m.items[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.items[s.ID] = m.wrap(s)
	return nil
}

// Get はセッションを取得します。
func (m *SessionMemory) Get(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.live(id)
	if !ok {
		return nil, usecase.ErrSessionNotFound
	}
	s := it.session
	return &s, nil
}

// Save は既存のセッションを上書きし、有効期限を延長します。
func (m *SessionMemory) Save(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live(s.ID); !ok {
		return usecase.ErrSessionNotFound
	}
	m.items[s.ID] = m.wrap(s)
	return nil
}

// Delete はセッションを削除します。
func (m *SessionMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)
	return nil
}

// Len は保持しているセッション数を返します。
func (m *SessionMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	return len(m.items)
}

func (m *SessionMemory) wrap(s *entity.Session) item {
	cp := *s
	if cp.Image != nil {
		img := *cp.Image
		img.Data = nil
		cp.Image = &img
	}
	it := item{session: cp}
	if m.ttl > 0 {
		it.expiresAt = m.now().Add(m.ttl)
	}
	return it
}

func (m *SessionMemory) live(id string) (item, bool) {
	it, ok := m.items[id]
	if !ok {
		return item{}, false
	}
	if m.expired(it) {
		delete(m.items, id)
		return item{}, false
	}
	return it, true
}

func (m *SessionMemory) expired(it item) bool {
	return !it.expiresAt.IsZero() && !m.now().Before(it.expiresAt)
}

func (m *SessionMemory) sweep() {
	for id, it := range m.items {
		if m.expired(it) {
			delete(m.items, id)
		}
	}
}
