// internal/app/alert_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"studio_alert_bot/internal/domain/alert"
	"studio_alert_bot/internal/domain/studio"
	"studio_alert_bot/internal/domain/subscriber"
	domainTelegram "studio_alert_bot/internal/domain/telegram"
	"studio_alert_bot/internal/infra/clock"
	"studio_alert_bot/internal/infra/studioapi"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/telebot.v3"
)

var ErrServiceClosed = errors.New("alert service is closed")
var ErrRefreshSuperseded = errors.New("refresh superseded by a newer one")

const (
	// msgFetchFailed is shown when a failure carries no backend detail.
	msgFetchFailed      = "تعذر جلب التنبيهات. الرجاء المحاولة لاحقًا."
	msgNotAuthenticated = "لا يوجد توكن مصادقة. الرجاء تسجيل الدخول."
)

// State of the displayed alert board.
type State string

const (
	StateLoading         State = "loading"
	StateReady           State = "ready"
	StateFailed          State = "failed"
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is one complete result of a refresh. It is either a full alert
// list or an error, never both.
type Snapshot struct {
	State       State
	Alerts      []alert.Alert
	Err         error
	RefreshedAt time.Time
}

// ErrorMessage is the user-facing text for a failed snapshot.
func (s Snapshot) ErrorMessage() string {
	return UserMessage(s.Err)
}

// UserMessage converts a refresh error into the text shown to users:
// the backend's detail when it sent one, otherwise a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *studioapi.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.Is(err, studio.ErrNotAuthenticated) {
		return msgNotAuthenticated
	}
	return msgFetchFailed
}

// Renderer turns alerts into chat text. The Telegram presentation layer implements it.
type Renderer interface {
	Board(snap Snapshot) string
	NewAlerts(alerts []alert.Alert) string
}

// AlertService owns the single in-memory alert board.
type AlertService struct {
	fetcher     studio.Fetcher
	credentials CredentialProvider
	subscribers subscriber.Repository
	deliveries  alert.DeliveryRepository
	tgClient    domainTelegram.Client
	renderer    Renderer
	clock       clock.Clock
	logger      *logrus.Entry

	mu       sync.Mutex
	current  Snapshot
	latest   uint64
	inflight context.CancelFunc
	closed   bool
}

func NewAlertService(
	fetcher studio.Fetcher,
	credentials CredentialProvider,
	subscribers subscriber.Repository,
	deliveries alert.DeliveryRepository,
	tgClient domainTelegram.Client,
	renderer Renderer,
	clk clock.Clock,
	logger *logrus.Entry,
) *AlertService {
	return &AlertService{
		fetcher:     fetcher,
		credentials: credentials,
		subscribers: subscribers,
		deliveries:  deliveries,
		tgClient:    tgClient,
		renderer:    renderer,
		clock:       clk,
		logger:      logger.WithField("component", "alert_service"),
		current:     Snapshot{State: StateLoading, Alerts: []alert.Alert{}},
	}
}

// Current returns the last published snapshot.
func (s *AlertService) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Refresh fetches both collections, derives the alert board and publishes it.
// Starting a refresh cancels the one in flight; only the most recently started
// refresh may publish. On failure the previous alert list is discarded.
func (s *AlertService) Refresh(ctx context.Context) (Snapshot, error) {
	ctx, seq, err := s.begin(ctx)
	if err != nil {
		return s.Current(), err
	}
	defer s.end(seq)

	log := s.logger.WithField("refresh_seq", seq)
	log.Debug("Refreshing alerts")

	snap, err := s.compute(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if s.isClosed() {
				log.Debug("Refresh cancelled by Close")
				return s.Current(), ErrServiceClosed
			}
			if s.superseded(seq) {
				log.Debug("Refresh cancelled by a newer one")
				return s.Current(), ErrRefreshSuperseded
			}
		}
		log.WithError(err).WithField("state", snap.State).Error("Failed to refresh alerts")
	}

	if perr := s.publish(seq, snap); perr != nil {
		log.WithError(perr).Debug("Dropping refresh result")
		return s.Current(), perr
	}

	if err == nil {
		log.WithField("alerts_count", len(snap.Alerts)).Info("Alerts refreshed")
	}
	return snap, err
}

func (s *AlertService) compute(ctx context.Context) (Snapshot, error) {
	credential, err := s.credentials.Credential(ctx)
	if err == nil && credential == "" {
		err = studio.ErrNotAuthenticated
	}
	if err != nil {
		state := StateFailed
		if errors.Is(err, studio.ErrNotAuthenticated) {
			state = StateUnauthenticated
		}
		return s.failed(state, err), err
	}

	printJobs, photoSessions, err := s.fetchAll(ctx, credential)
	if err != nil {
		var apiErr *studioapi.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			s.credentials.Invalidate()
			return s.failed(StateUnauthenticated, err), err
		}
		return s.failed(StateFailed, err), err
	}

	now := s.clock.Now()
	alerts := alert.Derive(printJobs, photoSessions, alert.NewWindow(now))
	return Snapshot{State: StateReady, Alerts: alerts, RefreshedAt: now}, nil
}

// fetchAll issues both fetches concurrently. If either fails the other is
// cancelled and its result discarded.
func (s *AlertService) fetchAll(ctx context.Context, credential string) ([]studio.PrintJob, []studio.PhotoSession, error) {
	var (
		printJobs     []studio.PrintJob
		photoSessions []studio.PhotoSession
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, err := s.fetcher.ListPrintJobs(gctx, credential)
		if err != nil {
			return fmt.Errorf("failed to fetch print jobs: %w", err)
		}
		printJobs = jobs
		return nil
	})
	g.Go(func() error {
		sessions, err := s.fetcher.ListPhotoSessions(gctx, credential)
		if err != nil {
			return fmt.Errorf("failed to fetch photo sessions: %w", err)
		}
		photoSessions = sessions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return printJobs, photoSessions, nil
}

func (s *AlertService) failed(state State, err error) Snapshot {
	return Snapshot{State: state, Alerts: []alert.Alert{}, Err: err, RefreshedAt: s.clock.Now()}
}

func (s *AlertService) begin(ctx context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrServiceClosed
	}
	if s.inflight != nil {
		s.inflight()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.latest++
	s.inflight = cancel
	return ctx, s.latest, nil
}

func (s *AlertService) end(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == seq && s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
}

func (s *AlertService) superseded(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest != seq
}

func (s *AlertService) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *AlertService) publish(seq uint64, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	if s.latest != seq {
		return ErrRefreshSuperseded
	}
	s.current = snap
	return nil
}

// Close cancels any refresh in flight. Nothing is published afterwards.
func (s *AlertService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
}

// PushNew sends every active alert a subscriber has not received yet.
// Each chat gets at most one message per call.
func (s *AlertService) PushNew(ctx context.Context) error {
	snap := s.Current()
	if snap.State != StateReady {
		s.logger.WithField("state", snap.State).Debug("Skipping push, no ready snapshot")
		return nil
	}

	ids := make([]string, 0, len(snap.Alerts))
	for _, a := range snap.Alerts {
		ids = append(ids, a.ID)
	}

	pruned, err := s.deliveries.PruneInactive(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Error("Failed to prune stale deliveries")
		return fmt.Errorf("failed to prune stale deliveries: %w", err)
	}
	if pruned > 0 {
		s.logger.WithField("pruned", pruned).Debug("Pruned deliveries of cleared alerts")
	}

	if len(snap.Alerts) == 0 {
		return nil
	}

	subs, err := s.subscribers.ListActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list active subscribers")
		return fmt.Errorf("failed to list active subscribers: %w", err)
	}

	var sendErrs []error
	for _, sub := range subs {
		log := s.logger.WithField("chat_id", sub.ChatID)

		delivered, err := s.deliveries.ListDelivered(ctx, sub.ChatID, ids)
		if err != nil {
			log.WithError(err).Error("Failed to list delivered alerts")
			sendErrs = append(sendErrs, err)
			continue
		}

		fresh := make([]alert.Alert, 0)
		for _, a := range snap.Alerts {
			if !delivered[a.ID] {
				fresh = append(fresh, a)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		text := s.renderer.NewAlerts(fresh)
		if err := s.tgClient.SendMessage(sub.ChatID, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true}); err != nil {
			log.WithError(err).Error("Failed to push new alerts")
			sendErrs = append(sendErrs, fmt.Errorf("chat %d: %w", sub.ChatID, err))
			continue
		}

		now := s.clock.Now()
		for _, a := range fresh {
			if err := s.deliveries.RecordDelivery(ctx, &alert.Delivery{AlertID: a.ID, ChatID: sub.ChatID, DeliveredAt: now}); err != nil {
				log.WithError(err).WithField("alert_id", a.ID).Error("Failed to record delivery")
			}
		}
		log.WithField("alerts_count", len(fresh)).Info("Pushed new alerts")
	}

	return errors.Join(sendErrs...)
}

// SendDigest sends the full board to every active subscriber.
func (s *AlertService) SendDigest(ctx context.Context) error {
	snap := s.Current()
	if snap.State == StateLoading {
		s.logger.Debug("Skipping digest, alerts not loaded yet")
		return nil
	}

	subs, err := s.subscribers.ListActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list active subscribers")
		return fmt.Errorf("failed to list active subscribers: %w", err)
	}

	text := s.renderer.Board(snap)
	var sendErrs []error
	for _, sub := range subs {
		if err := s.tgClient.SendMessage(sub.ChatID, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true}); err != nil {
			s.logger.WithError(err).WithField("chat_id", sub.ChatID).Error("Failed to send digest")
			sendErrs = append(sendErrs, fmt.Errorf("chat %d: %w", sub.ChatID, err))
		}
	}
	s.logger.WithField("subscribers_count", len(subs)).Info("Digest sent")
	return errors.Join(sendErrs...)
}
