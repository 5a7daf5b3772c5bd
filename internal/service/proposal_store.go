package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juliasaboya/ScheduleEngine/internal/models"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

const proposalKeyPrefix = "planner:weekly:"

// ProposalStore keeps weekly proposals between requests. Save accepts a
// proposal only when the stored copy is exactly one version behind it, so a
// first save must carry version 1.
type ProposalStore interface {
	Save(ctx context.Context, proposal *models.WeeklyProposal) error
	Get(ctx context.Context, id string) (*models.WeeklyProposal, error)
}

// NewProposalStore stores proposals in the cache when it is enabled and in
// process memory otherwise.
func NewProposalStore(cache *CacheService, ttl time.Duration) ProposalStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cache.Enabled() {
		return &cachedProposalStore{cache: cache, ttl: ttl}
	}
	return newMemoryProposalStore(ttl, time.Now)
}

type cachedProposalStore struct {
	cache *CacheService
	ttl   time.Duration
}

func (s *cachedProposalStore) Save(ctx context.Context, proposal *models.WeeklyProposal) error {
	ttl := time.Until(proposal.ExpiresAt)
	if proposal.ExpiresAt.IsZero() || ttl > s.ttl {
		ttl = s.ttl
	}
	if ttl <= 0 {
		return appErrors.Clone(appErrors.ErrConflict, "proposal has expired")
	}
	swapped, err := s.cache.SwapVersioned(ctx, proposalKeyPrefix+proposal.ID, proposal, ttl, proposal.Version-1)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proposal")
	}
	if !swapped {
		return staleProposal(proposal)
	}
	return nil
}

func (s *cachedProposalStore) Get(ctx context.Context, id string) (*models.WeeklyProposal, error) {
	var proposal models.WeeklyProposal
	hit, err := s.cache.Get(ctx, proposalKeyPrefix+id, &proposal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return &proposal, nil
}

// memoryProposalStore is an in-process TTL map.
type memoryProposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*models.WeeklyProposal
}

func newMemoryProposalStore(ttl time.Duration, now func() time.Time) *memoryProposalStore {
	return &memoryProposalStore{ttl: ttl, now: now, items: make(map[string]*models.WeeklyProposal)}
}

func (s *memoryProposalStore) Save(_ context.Context, proposal *models.WeeklyProposal) error {
	stored := proposal.Clone()
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	current := 0
	if existing, ok := s.items[proposal.ID]; ok {
		current = existing.Version
	}
	if current != proposal.Version-1 {
		return staleProposal(proposal)
	}
	s.items[proposal.ID] = stored
	return nil
}

func (s *memoryProposalStore) Get(_ context.Context, id string) (*models.WeeklyProposal, error) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || s.expired(proposal) {
		if ok {
			s.dropExpired(id)
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return proposal.Clone(), nil
}

// dropExpired removes id only if the entry stored now is expired; a Save may
// have replaced it since the caller looked.
func (s *memoryProposalStore) dropExpired(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.items[id]; ok && s.expired(current) {
		delete(s.items, id)
	}
}

func (s *memoryProposalStore) expired(p *models.WeeklyProposal) bool {
	return s.now().After(p.ExpiresAt)
}

// evictExpired must be called with the write lock held.
func (s *memoryProposalStore) evictExpired() {
	for id, p := range s.items {
		if s.expired(p) {
			delete(s.items, id)
		}
	}
}

func staleProposal(p *models.WeeklyProposal) error {
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("proposal %s was modified by another request", p.ID))
}

// keyedMutex serialises work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
