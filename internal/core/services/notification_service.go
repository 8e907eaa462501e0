package services

import (
	"context"
	"log"

	"purse-circle/internal/core/purse"
)

// NotificationService receives committed purse events. It logs each one,
// feeds the metrics and fans out to any extra subscribers.
type NotificationService struct {
	metrics     *Metrics
	subscribers []purse.Notifier
	enabled     bool
}

// NewNotificationService creates a new notification service; metrics may be nil
func NewNotificationService(metrics *Metrics, enabled bool) *NotificationService {
	return &NotificationService{
		metrics: metrics,
		enabled: enabled,
	}
}

// IsEnabled checks if event logging is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// Subscribe adds a downstream notifier
func (s *NotificationService) Subscribe(n purse.Notifier) {
	s.subscribers = append(s.subscribers, n)
}

// Notify implements purse.Notifier
func (s *NotificationService) Notify(ctx context.Context, event purse.Event) {
	s.metrics.Observe(event)
	if s.enabled {
		s.logEvent(event)
	}
	for _, sub := range s.subscribers {
		sub.Notify(ctx, event)
	}
}

func (s *NotificationService) logEvent(event purse.Event) {
	switch e := event.(type) {
	case purse.PurseCreated:
		log.Printf("🆕 Purse %s created by %s (%d x %d %s)",
			e.PurseID, e.Creator, e.Params.MaxMembers, e.Params.ContributionAmount, e.Params.Token)
	case purse.MemberJoined:
		log.Printf("👤 %s joined purse %s at position %d", e.Member, e.PurseID, e.Position)
	case purse.DonationDeposited:
		log.Printf("💰 %s donated %d to %s in purse %s round %d",
			e.Donor, e.Amount, e.Beneficiary, e.PurseID, e.RoundIndex)
	case purse.DonationClaimed:
		log.Printf("✅ %s received %d from purse %s (%s)", e.Beneficiary, e.Amount, e.PurseID, e.Outcome)
	case purse.RoundAdvanced:
		if e.Completed {
			log.Printf("🏁 Purse %s completed its circle", e.PurseID)
			return
		}
		log.Printf("🔄 Purse %s moved to round %d (beneficiary %q)", e.PurseID, e.NewRoundIndex, e.NewBeneficiary)
	default:
		log.Printf("📣 Purse %s: %s", event.Purse(), event.EventName())
	}
}
