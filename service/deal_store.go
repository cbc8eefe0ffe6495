package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/si451/creatorconnect/backend/config"
	"github.com/si451/creatorconnect/backend/model"
)

// DealStore is an in-memory store for in-flight deals, scoped by tenant
// and bounded by evicting the oldest entries. Completed payments are
// persisted to the database separately; a deal itself is view-session
// state the user can always recreate by resubmitting the proposal.
type DealStore struct {
	deals    map[string]*model.Deal
	mu       sync.RWMutex
	maxDeals int // 0 = unlimited
}

func NewDealStore(cfg *config.StoreConfig) *DealStore {
	maxDeals := cfg.MaxDeals
	if maxDeals < 0 {
		maxDeals = 0
	}
	return &DealStore{
		deals:    make(map[string]*model.Deal),
		maxDeals: maxDeals,
	}
}

func (s *DealStore) Save(deal *model.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal.UpdatedAt = time.Now()
	s.deals[deal.ID] = deal

	s.evictIfNeeded()
}

func (s *DealStore) Get(id string) *model.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deals[id]
}

func (s *DealStore) GetByTenant(tenant string) []*model.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Deal
	for _, d := range s.deals {
		if d.Tenant == tenant {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *DealStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deals, id)
}

// evictIfNeeded removes the oldest deals when the store exceeds its bound.
// Must be called with lock held.
func (s *DealStore) evictIfNeeded() {
	if s.maxDeals <= 0 {
		return
	}
	if len(s.deals) <= s.maxDeals {
		return
	}

	deals := make([]*model.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		deals = append(deals, d)
	}
	sort.Slice(deals, func(i, j int) bool {
		return deals[i].CreatedAt.Before(deals[j].CreatedAt)
	})

	removeCount := len(deals) - s.maxDeals
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting old deal",
			"deal_id", deals[i].ID,
			"created_at", deals[i].CreatedAt,
		)
		delete(s.deals, deals[i].ID)
	}
}

// Count returns the number of stored deals.
func (s *DealStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deals)
}
