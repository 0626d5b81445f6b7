package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studio_alert_bot/internal/domain/subscriber"
	idb "studio_alert_bot/internal/infra/database"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as a manager")
var ErrSubscriberAlreadyExists = fmt.Errorf("subscriber with this chat ID already exists")
var ErrSubscriberAlreadyInactive = fmt.Errorf("subscriber is already inactive")

// AdminService gates manager-only actions and manages alert subscribers.
// Managers are the configured admin plus any extra manager ids; everyone
// else with an active subscription is treated as an employee.
type AdminService struct {
	subscriberRepo subscriber.Repository
	managerIDs     map[int64]struct{}
}

func NewAdminService(sr subscriber.Repository, adminID int64, extraManagerIDs []int64) *AdminService {
	managers := map[int64]struct{}{adminID: {}}
	for _, id := range extraManagerIDs {
		managers[id] = struct{}{}
	}
	return &AdminService{
		subscriberRepo: sr,
		managerIDs:     managers,
	}
}

// IsManager reports whether the Telegram user may run manager commands.
func (s *AdminService) IsManager(telegramID int64) bool {
	_, ok := s.managerIDs[telegramID]
	return ok
}

// CanViewAlerts reports whether the user may read the alert board in a chat:
// managers always, everyone else while either the chat (a subscribed group)
// or the user's own private chat has an active subscription.
func (s *AdminService) CanViewAlerts(ctx context.Context, chatID int64, telegramID int64) (bool, error) {
	if s.IsManager(telegramID) {
		return true, nil
	}
	ok, err := s.isActiveSubscriber(ctx, chatID)
	if err != nil || ok || chatID == telegramID {
		return ok, err
	}
	return s.isActiveSubscriber(ctx, telegramID)
}

func (s *AdminService) isActiveSubscriber(ctx context.Context, chatID int64) (bool, error) {
	sub, err := s.subscriberRepo.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, idb.ErrSubscriberNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up subscriber: %w", err)
	}
	return sub.IsActive, nil
}

// AddSubscriber registers a chat for pushed alerts, reactivating it if it was removed.
func (s *AdminService) AddSubscriber(ctx context.Context, performingID int64, chatID int64, name string, note string) (*subscriber.Subscriber, error) {
	if !s.IsManager(performingID) {
		return nil, ErrAdminNotAuthorized
	}

	existing, err := s.subscriberRepo.GetByChatID(ctx, chatID)
	if err == nil {
		if existing.IsActive {
			return nil, ErrSubscriberAlreadyExists
		}
		existing.IsActive = true
		existing.Name = name
		existing.Note = nullString(note)
		if err := s.subscriberRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate subscriber in repository: %w", err)
		}
		return existing, nil
	}
	if !errors.Is(err, idb.ErrSubscriberNotFound) {
		return nil, fmt.Errorf("failed to check existing subscriber: %w", err)
	}

	sub := &subscriber.Subscriber{
		ChatID:   chatID,
		Name:     name,
		Note:     nullString(note),
		IsActive: true,
	}
	if err := s.subscriberRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, idb.ErrDuplicateChatID) {
			return nil, ErrSubscriberAlreadyExists
		}
		return nil, fmt.Errorf("failed to create subscriber in repository: %w", err)
	}
	return sub, nil
}

// RemoveSubscriber deactivates a chat; its delivery history is kept.
func (s *AdminService) RemoveSubscriber(ctx context.Context, performingID int64, chatID int64) (*subscriber.Subscriber, error) {
	if !s.IsManager(performingID) {
		return nil, ErrAdminNotAuthorized
	}

	target, err := s.subscriberRepo.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, idb.ErrSubscriberNotFound) {
			return nil, idb.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to get subscriber by chat ID for removal: %w", err)
	}
	if !target.IsActive {
		return target, ErrSubscriberAlreadyInactive
	}

	target.IsActive = false
	if err := s.subscriberRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update subscriber to inactive in repository: %w", err)
	}
	return target, nil
}

func (s *AdminService) ListActiveSubscribers(ctx context.Context, performingID int64) ([]*subscriber.Subscriber, error) {
	if !s.IsManager(performingID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.subscriberRepo.ListActive(ctx)
}

func (s *AdminService) ListAllSubscribers(ctx context.Context, performingID int64) ([]*subscriber.Subscriber, error) {
	if !s.IsManager(performingID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.subscriberRepo.ListAll(ctx)
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
