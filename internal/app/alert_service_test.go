package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"studio_alert_bot/internal/domain/alert"
	"studio_alert_bot/internal/domain/studio"
	"studio_alert_bot/internal/domain/subscriber"
	"studio_alert_bot/internal/infra/clock"
	"studio_alert_bot/internal/infra/studioapi"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceNow = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.Local)

func date(days int) studio.Date {
	t := serviceNow.AddDate(0, 0, days)
	return studio.NewDate(t.Year(), t.Month(), t.Day())
}

type serviceDeps struct {
	fetcher     *fakeFetcher
	credentials *fakeCredentials
	subscribers *fakeSubscriberRepo
	deliveries  *fakeDeliveryRepo
	telegram    *fakeTelegram
}

func newTestService(deps *serviceDeps) *AlertService {
	if deps.fetcher == nil {
		deps.fetcher = &fakeFetcher{}
	}
	if deps.credentials == nil {
		deps.credentials = &fakeCredentials{token: "secret"}
	}
	if deps.subscribers == nil {
		deps.subscribers = newFakeSubscriberRepo()
	}
	if deps.deliveries == nil {
		deps.deliveries = newFakeDeliveryRepo()
	}
	if deps.telegram == nil {
		deps.telegram = &fakeTelegram{}
	}
	return NewAlertService(
		deps.fetcher,
		deps.credentials,
		deps.subscribers,
		deps.deliveries,
		deps.telegram,
		idRenderer{},
		clock.Fixed(serviceNow),
		quietLogger(),
	)
}

func overdueJobs(ids ...int64) func(context.Context, string) ([]studio.PrintJob, error) {
	return func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
		jobs := make([]studio.PrintJob, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, studio.PrintJob{ID: id, Status: studio.PrintJobPending, DeliveryDate: date(-1)})
		}
		return jobs, nil
	}
}

func alertIDs(alerts []alert.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}

func TestAlertService_InitialStateIsLoading(t *testing.T) {
	svc := newTestService(&serviceDeps{})
	snap := svc.Current()
	assert.Equal(t, StateLoading, snap.State)
	assert.Empty(t, snap.Alerts)
}

func TestAlertService_RefreshPublishesSortedAlerts(t *testing.T) {
	deps := &serviceDeps{fetcher: &fakeFetcher{
		printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
			assert.Equal(t, "secret", credential)
			return []studio.PrintJob{
				{ID: 1, Status: studio.PrintJobInProgress},
				{ID: 7, ReceiptNumber: "R-007", Status: studio.PrintJobPending, DeliveryDate: date(-1)},
			}, nil
		},
		photoSessions: func(ctx context.Context, credential string) ([]studio.PhotoSession, error) {
			return []studio.PhotoSession{
				{ID: 3, Status: studio.SessionScheduled, EditingStatus: studio.EditingInEditing, FinalDeliveryDate: date(3), RemainingAmount: studio.NewAmount(decimal.RequireFromString("50.00"))},
			}, nil
		},
	}}
	svc := newTestService(deps)

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, []string{"print-overdue-7", "photo-upcoming-3", "photo-unpaid-3", "print-in_progress-1"}, alertIDs(snap.Alerts))
	assert.Equal(t, serviceNow, snap.RefreshedAt)
	assert.Equal(t, snap, svc.Current())
}

func TestAlertService_FetchFailureDiscardsPreviousAlerts(t *testing.T) {
	var fail atomic.Bool
	deps := &serviceDeps{fetcher: &fakeFetcher{
		printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
			if fail.Load() {
				return nil, &studioapi.APIError{StatusCode: http.StatusInternalServerError, Path: "/printjobs/", Detail: "الخادم غير متاح"}
			}
			return overdueJobs(1, 2)(ctx, credential)
		},
		photoSessions: func(ctx context.Context, credential string) ([]studio.PhotoSession, error) {
			return []studio.PhotoSession{{ID: 5, Status: studio.SessionScheduled, FinalDeliveryDate: date(-2)}}, nil
		},
	}}
	svc := newTestService(deps)

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Alerts, 3)

	fail.Store(true)
	snap, err = svc.Refresh(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateFailed, snap.State)
	assert.Empty(t, snap.Alerts)
	assert.Equal(t, "الخادم غير متاح", snap.ErrorMessage())
	assert.Equal(t, snap, svc.Current())
}

func TestAlertService_GenericErrorMessage(t *testing.T) {
	deps := &serviceDeps{fetcher: &fakeFetcher{
		photoSessions: func(ctx context.Context, credential string) ([]studio.PhotoSession, error) {
			return nil, errors.New("connection refused")
		},
	}}
	svc := newTestService(deps)

	snap, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, msgFetchFailed, snap.ErrorMessage())
}

func TestAlertService_Unauthenticated(t *testing.T) {
	t.Run("no credential", func(t *testing.T) {
		var fetched atomic.Bool
		deps := &serviceDeps{
			credentials: &fakeCredentials{},
			fetcher: &fakeFetcher{printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
				fetched.Store(true)
				return nil, nil
			}},
		}
		svc := newTestService(deps)

		snap, err := svc.Refresh(context.Background())
		assert.ErrorIs(t, err, studio.ErrNotAuthenticated)
		assert.Equal(t, StateUnauthenticated, snap.State)
		assert.Equal(t, msgNotAuthenticated, snap.ErrorMessage())
		assert.Equal(t, "لا يوجد توكن مصادقة. الرجاء تسجيل الدخول.", snap.ErrorMessage())
		assert.False(t, fetched.Load())
	})

	t.Run("rejected token is invalidated", func(t *testing.T) {
		deps := &serviceDeps{fetcher: &fakeFetcher{
			printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
				return nil, &studioapi.APIError{StatusCode: http.StatusUnauthorized, Path: "/printjobs/", Detail: "Invalid token."}
			},
		}}
		svc := newTestService(deps)

		snap, err := svc.Refresh(context.Background())
		require.Error(t, err)
		assert.Equal(t, StateUnauthenticated, snap.State)
		assert.Equal(t, "Invalid token.", snap.ErrorMessage())
		assert.Equal(t, 1, deps.credentials.invalidated)
	})
}

func TestAlertService_NewerRefreshSupersedesOlder(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	deps := &serviceDeps{fetcher: &fakeFetcher{
		printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return overdueJobs(2)(ctx, credential)
		},
	}}
	svc := newTestService(deps)

	type result struct {
		snap Snapshot
		err  error
	}
	first := make(chan result, 1)
	go func() {
		snap, err := svc.Refresh(context.Background())
		first <- result{snap, err}
	}()
	<-entered

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"print-overdue-2"}, alertIDs(snap.Alerts))

	select {
	case r := <-first:
		assert.ErrorIs(t, r.err, ErrRefreshSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded refresh did not return")
	}
	assert.Equal(t, StateReady, svc.Current().State)
	assert.Equal(t, []string{"print-overdue-2"}, alertIDs(svc.Current().Alerts))
}

func TestAlertService_CloseStopsPublishing(t *testing.T) {
	entered := make(chan struct{})
	deps := &serviceDeps{fetcher: &fakeFetcher{
		printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}
	svc := newTestService(deps)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()
	<-entered
	svc.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrServiceClosed)
		assert.NotErrorIs(t, err, ErrRefreshSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not stop after Close")
	}
	assert.Equal(t, StateLoading, svc.Current().State)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrServiceClosed)
}

func TestAlertService_PushNew(t *testing.T) {
	var jobIDs atomic.Value
	jobIDs.Store([]int64{1, 2})
	deps := &serviceDeps{
		fetcher: &fakeFetcher{printJobs: func(ctx context.Context, credential string) ([]studio.PrintJob, error) {
			return overdueJobs(jobIDs.Load().([]int64)...)(ctx, credential)
		}},
		subscribers: newFakeSubscriberRepo(
			&subscriber.Subscriber{ChatID: 100, Name: "Front desk", IsActive: true},
			&subscriber.Subscriber{ChatID: 200, Name: "Old phone", IsActive: false},
		),
	}
	svc := newTestService(deps)

	t.Run("nothing before first refresh", func(t *testing.T) {
		require.NoError(t, svc.PushNew(context.Background()))
		assert.Empty(t, deps.telegram.messages())
	})

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	t.Run("first push sends every alert once", func(t *testing.T) {
		require.NoError(t, svc.PushNew(context.Background()))
		msgs := deps.telegram.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, int64(100), msgs[0].chatID)
		assert.Equal(t, "new: print-overdue-1,print-overdue-2", msgs[0].text)
	})

	t.Run("second push has nothing new", func(t *testing.T) {
		require.NoError(t, svc.PushNew(context.Background()))
		assert.Len(t, deps.telegram.messages(), 1)
	})

	t.Run("only new alerts are pushed and cleared ones are forgotten", func(t *testing.T) {
		jobIDs.Store([]int64{2, 3})
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)

		require.NoError(t, svc.PushNew(context.Background()))
		msgs := deps.telegram.messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "new: print-overdue-3", msgs[1].text)
		assert.False(t, deps.deliveries.delivered[deliveryKey(100, "print-overdue-1")])
	})
}

func TestAlertService_PushNewReportsSendErrors(t *testing.T) {
	deps := &serviceDeps{
		fetcher: &fakeFetcher{printJobs: overdueJobs(1)},
		subscribers: newFakeSubscriberRepo(
			&subscriber.Subscriber{ChatID: 100, IsActive: true},
			&subscriber.Subscriber{ChatID: 300, IsActive: true},
		),
		telegram: &fakeTelegram{failFor: map[int64]error{100: errors.New("bot was blocked by the user")}},
	}
	svc := newTestService(deps)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	err = svc.PushNew(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 100")

	msgs := deps.telegram.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(300), msgs[0].chatID)
	assert.False(t, deps.deliveries.delivered[deliveryKey(100, "print-overdue-1")], "failed sends must be retried")
}

func TestAlertService_SendDigest(t *testing.T) {
	deps := &serviceDeps{
		fetcher:     &fakeFetcher{printJobs: overdueJobs(4)},
		subscribers: newFakeSubscriberRepo(&subscriber.Subscriber{ChatID: 100, IsActive: true}),
	}
	svc := newTestService(deps)

	require.NoError(t, svc.SendDigest(context.Background()))
	assert.Empty(t, deps.telegram.messages(), "no digest while loading")

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.SendDigest(context.Background()))

	msgs := deps.telegram.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "board: print-overdue-4", msgs[0].text)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "detail", UserMessage(&studioapi.APIError{Detail: "detail"}))
	assert.Equal(t, msgNotAuthenticated, UserMessage(studio.ErrNotAuthenticated))
	assert.Equal(t, msgNotAuthenticated, UserMessage(fmt.Errorf("%w: login failed", studio.ErrNotAuthenticated)))
	assert.Equal(t, msgFetchFailed, UserMessage(errors.New("boom")))
}
