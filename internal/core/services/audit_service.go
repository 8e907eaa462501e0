package services

import (
	"fmt"

	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"

	lru "github.com/hashicorp/golang-lru/v2"
)

type auditDirection string

const (
	auditFor auditDirection = "for"
	auditBy  auditDirection = "by"
)

// auditKey includes the history length: history only grows, so an entry
// can never go stale, it just stops being asked for.
type auditKey struct {
	purseID    string
	historyLen int
	address    domain.Address
	direction  auditDirection
}

// AuditService answers missed-donation queries with an LRU in front
type AuditService struct {
	cache *lru.Cache[auditKey, purse.MissedDonations]
}

// NewAuditService creates an audit service caching up to size results
func NewAuditService(size int) (*AuditService, error) {
	cache, err := lru.New[auditKey, purse.MissedDonations](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit cache: %w", err)
	}
	return &AuditService{cache: cache}, nil
}

// MissedFor lists members who skipped donating to beneficiary
func (s *AuditService) MissedFor(h *purse.Handle, beneficiary domain.Address) purse.MissedDonations {
	return s.lookup(h, beneficiary, auditFor)
}

// MissedBy lists beneficiaries donor skipped
func (s *AuditService) MissedBy(h *purse.Handle, donor domain.Address) purse.MissedDonations {
	return s.lookup(h, donor, auditBy)
}

// Len returns the number of cached results
func (s *AuditService) Len() int {
	return s.cache.Len()
}

func (s *AuditService) lookup(h *purse.Handle, addr domain.Address, dir auditDirection) purse.MissedDonations {
	var result purse.MissedDonations
	h.View(func(p *purse.Purse) {
		key := auditKey{purseID: p.ID(), historyLen: p.HistoryLen(), address: addr, direction: dir}
		if cached, ok := s.cache.Get(key); ok {
			result = cached
			return
		}
		if dir == auditFor {
			result = p.CalculateMissedDonationForUser(addr)
		} else {
			result = p.CalculateMissedDonationByUser(addr)
		}
		s.cache.Add(key, result)
	})
	// callers own the returned slice
	result.Addresses = append([]domain.Address{}, result.Addresses...)
	return result
}
