package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"studio_alert_bot/internal/domain/alert"
	"studio_alert_bot/internal/domain/studio"
	"studio_alert_bot/internal/domain/subscriber"
	idb "studio_alert_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeFetcher struct {
	printJobs     func(ctx context.Context, credential string) ([]studio.PrintJob, error)
	photoSessions func(ctx context.Context, credential string) ([]studio.PhotoSession, error)
}

func (f *fakeFetcher) ListPrintJobs(ctx context.Context, credential string) ([]studio.PrintJob, error) {
	if f.printJobs == nil {
		return []studio.PrintJob{}, nil
	}
	return f.printJobs(ctx, credential)
}

func (f *fakeFetcher) ListPhotoSessions(ctx context.Context, credential string) ([]studio.PhotoSession, error) {
	if f.photoSessions == nil {
		return []studio.PhotoSession{}, nil
	}
	return f.photoSessions(ctx, credential)
}

type fakeDirectory struct {
	mu     sync.Mutex
	logins int
	token  string
	err    error
}

func (d *fakeDirectory) Login(ctx context.Context, username, password string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logins++
	return d.token, d.err
}

func (d *fakeDirectory) CurrentUser(ctx context.Context, credential string) (*studio.Actor, error) {
	return &studio.Actor{Username: "boss", RoleDisplay: "مدير"}, nil
}

type fakeCredentials struct {
	mu          sync.Mutex
	token       string
	err         error
	invalidated int
}

func (c *fakeCredentials) Credential(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.err
}

func (c *fakeCredentials) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
}

// fakeSubscriberRepo is an in-memory subscriber.Repository keyed by chat id.
type fakeSubscriberRepo struct {
	mu      sync.Mutex
	byChat  map[int64]*subscriber.Subscriber
	nextID  int64
	listErr error
}

func newFakeSubscriberRepo(subs ...*subscriber.Subscriber) *fakeSubscriberRepo {
	r := &fakeSubscriberRepo{byChat: map[int64]*subscriber.Subscriber{}}
	for _, s := range subs {
		r.nextID++
		s.ID = r.nextID
		r.byChat[s.ChatID] = s
	}
	return r
}

func (r *fakeSubscriberRepo) Create(ctx context.Context, s *subscriber.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byChat[s.ChatID]; ok {
		return idb.ErrDuplicateChatID
	}
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.byChat[s.ChatID] = &cp
	return nil
}

func (r *fakeSubscriberRepo) GetByChatID(ctx context.Context, chatID int64) (*subscriber.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byChat[chatID]
	if !ok {
		return nil, idb.ErrSubscriberNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubscriberRepo) Update(ctx context.Context, s *subscriber.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byChat[s.ChatID]; !ok {
		return idb.ErrSubscriberNotFound
	}
	cp := *s
	r.byChat[s.ChatID] = &cp
	return nil
}

func (r *fakeSubscriberRepo) ListActive(ctx context.Context) ([]*subscriber.Subscriber, error) {
	return r.list(true)
}

func (r *fakeSubscriberRepo) ListAll(ctx context.Context) ([]*subscriber.Subscriber, error) {
	return r.list(false)
}

func (r *fakeSubscriberRepo) list(activeOnly bool) ([]*subscriber.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*subscriber.Subscriber, 0)
	for id := int64(1); id <= r.nextID; id++ {
		for _, s := range r.byChat {
			if s.ID == id && (!activeOnly || s.IsActive) {
				cp := *s
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

type fakeDeliveryRepo struct {
	mu        sync.Mutex
	delivered map[string]bool // "chat:alert"
	pruneArgs [][]string
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{delivered: map[string]bool{}}
}

func deliveryKey(chatID int64, alertID string) string {
	return fmt.Sprintf("%d:%s", chatID, alertID)
}

func (r *fakeDeliveryRepo) RecordDelivery(ctx context.Context, d *alert.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered[deliveryKey(d.ChatID, d.AlertID)] = true
	return nil
}

func (r *fakeDeliveryRepo) ListDelivered(ctx context.Context, chatID int64, alertIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, id := range alertIDs {
		if r.delivered[deliveryKey(chatID, id)] {
			out[id] = true
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) PruneInactive(ctx context.Context, activeIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneArgs = append(r.pruneArgs, activeIDs)
	active := map[string]bool{}
	for _, id := range activeIDs {
		active[id] = true
	}
	var n int64
	for key := range r.delivered {
		alertID := key[strings.Index(key, ":")+1:]
		if !active[alertID] {
			delete(r.delivered, key)
			n++
		}
	}
	return n, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

func (f *fakeTelegram) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeTelegram) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// idRenderer renders alerts as their ids so tests can assert on content.
type idRenderer struct{}

func (idRenderer) Board(snap Snapshot) string {
	if snap.State != StateReady {
		return string(snap.State) + ": " + snap.ErrorMessage()
	}
	return "board: " + joinIDs(snap.Alerts)
}

func (idRenderer) NewAlerts(alerts []alert.Alert) string {
	return "new: " + joinIDs(alerts)
}

func joinIDs(alerts []alert.Alert) string {
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, a.ID)
	}
	return strings.Join(parts, ",")
}
