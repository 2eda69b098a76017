// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/adapter"
	"telegram-vip-subscription/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memCodeRepo is a small in-memory implementation used by unit tests.
type memCodeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Code

	// createErrs, when non-empty, is popped on each Create call to
	// simulate store failures such as unique-constraint collisions.
	createErrs []error
	// findHook, when set, overrides FindByCode to simulate stale reads.
	findHook func(token string) (*model.Code, error)
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: make(map[string]*model.Code)}
}

func (m *memCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.store[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.store[code.Code] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, token string) (*model.Code, error) {
	if m.findHook != nil {
		return m.findHook(token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCodeRepo) MarkConsumed(ctx context.Context, tx repository.Tx, token string, subscriberID int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[token]
	if !ok || c.ConsumedBy != nil {
		return false, nil
	}
	sub := subscriberID
	ts := at
	c.ConsumedBy = &sub
	c.ConsumedAt = &ts
	return true, nil
}

func (m *memCodeRepo) ListUnconsumed(ctx context.Context, limit int) ([]*model.Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Code, 0)
	for _, c := range m.store {
		if c.ConsumedBy == nil {
			cp := *c
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memCodeRepo) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store[token]; ok && c.ConsumedBy == nil {
		delete(m.store, token)
	}
	return nil
}

func (m *memCodeRepo) snapshot() map[string]model.Code {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]model.Code, len(m.store))
	for k, v := range m.store {
		snap[k] = *v
	}
	return snap
}

func (m *memCodeRepo) restore(snap map[string]model.Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]*model.Code, len(snap))
	for k, v := range snap {
		cp := v
		m.store[k] = &cp
	}
}

// memSubRepo is an in-memory SubscriptionRepository.
type memSubRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.Subscription

	listErr      error
	deleteErrFor map[int64]error
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{store: make(map[int64]*model.Subscription)}
}

func (m *memSubRepo) Find(ctx context.Context, tx repository.Tx, subscriberID int64) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[subscriberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubRepo) Upsert(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.store[sub.SubscriberID] = &cp
	return nil
}

func (m *memSubRepo) Delete(ctx context.Context, subscriberID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.deleteErrFor[subscriberID]; ok {
		return err
	}
	delete(m.store, subscriberID)
	return nil
}

func (m *memSubRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.Subscription, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Subscription, 0)
	for _, s := range m.store {
		if !s.ExpiresAt.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubRepo) CountActive(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, s := range m.store {
		if s.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

func (m *memSubRepo) snapshot() map[int64]model.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[int64]model.Subscription, len(m.store))
	for k, v := range m.store {
		snap[k] = *v
	}
	return snap
}

func (m *memSubRepo) restore(snap map[int64]model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[int64]*model.Subscription, len(snap))
	for k, v := range snap {
		cp := v
		m.store[k] = &cp
	}
}

// memTxManager serializes transactions and restores repo snapshots when the
// callback fails, emulating a rollback over the in-memory repos.
type memTxManager struct {
	mu    sync.Mutex
	codes *memCodeRepo
	subs  *memSubRepo
}

func newMemTxManager(codes *memCodeRepo, subs *memSubRepo) *memTxManager {
	return &memTxManager{codes: codes, subs: subs}
}

func (m *memTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	codeSnap := m.codes.snapshot()
	subSnap := m.subs.snapshot()
	if err := fn(ctx, repository.NoTX); err != nil {
		m.codes.restore(codeSnap)
		m.subs.restore(subSnap)
		return err
	}
	return nil
}

type sentMsg struct {
	tgID int64
	text string
}

// memBot records outbound calls and fails on demand.
type memBot struct {
	mu        sync.Mutex
	sent      []sentMsg
	revoked   []int64
	sendErr   error
	revokeErr error
}

var _ adapter.BotAdapter = (*memBot)(nil)

func (b *memBot) SendMessage(ctx context.Context, tgID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, sentMsg{tgID: tgID, text: text})
	return nil
}

func (b *memBot) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	return b.SendMessage(ctx, tgID, text)
}

func (b *memBot) AnswerCallback(ctx context.Context, callbackID, text string) error { return nil }

func (b *memBot) CreateInviteLink(ctx context.Context, ttl time.Duration, memberLimit int) (string, error) {
	return "https://t.me/+test", nil
}

func (b *memBot) RevokeAccess(ctx context.Context, tgID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revokeErr != nil {
		return b.revokeErr
	}
	b.revoked = append(b.revoked, tgID)
	return nil
}
