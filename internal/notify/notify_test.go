package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/notify"
	"bobiz-backend/internal/repository/memory"
)

type countingSink struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	delivered []domain.EngineEvent
}

func (s *countingSink) Name() string { return "counting" }

func (s *countingSink) Deliver(_ context.Context, ev domain.EngineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failFirst {
		return errors.New("temporarily unavailable")
	}
	s.delivered = append(s.delivered, ev)
	return nil
}

func (s *countingSink) counts() (attempts, delivered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, len(s.delivered)
}

func startDispatcher(t *testing.T, opts notify.Options, sinks ...notify.Sink) *notify.Dispatcher {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	d := notify.NewDispatcher(opts, sinks...)
	d.Start(ctx)
	t.Cleanup(func() {
		cancel()
		d.Wait()
	})
	return d
}

func TestDispatcher_DeliversToEverySink(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	d := startDispatcher(t, notify.Options{Workers: 2}, a, b)

	d.Notify(context.Background(), domain.EngineEvent{Type: domain.EngineEventExchangeStarted, Recipients: []int32{1, 2}, ExchangeID: 3})

	assert.Eventually(t, func() bool {
		_, da := a.counts()
		_, db := b.counts()
		return da == 1 && db == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcher_SkipsEventsWithoutRecipients(t *testing.T) {
	sink := &countingSink{}
	d := startDispatcher(t, notify.Options{}, sink)

	d.Notify(context.Background(), domain.EngineEvent{Type: domain.EngineEventExchangeCreated, ExchangeID: 3})

	assert.Never(t, func() bool {
		attempts, _ := sink.counts()
		return attempts > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestDispatcher_RetriesFailedDeliveries(t *testing.T) {
	sink := &countingSink{failFirst: 2}
	d := startDispatcher(t, notify.Options{MaxRetries: 3, Backoff: time.Millisecond}, sink)

	d.Notify(context.Background(), domain.EngineEvent{Type: domain.EngineEventExchangeCompleted, Recipients: []int32{1}})

	assert.Eventually(t, func() bool {
		attempts, delivered := sink.counts()
		return attempts == 3 && delivered == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_GivesUpAfterMaxRetries(t *testing.T) {
	sink := &countingSink{failFirst: 10}
	d := startDispatcher(t, notify.Options{MaxRetries: 1, Backoff: time.Millisecond}, sink)

	d.Notify(context.Background(), domain.EngineEvent{Type: domain.EngineEventExchangeCompleted, Recipients: []int32{1}})

	assert.Eventually(t, func() bool {
		attempts, _ := sink.counts()
		return attempts == 2
	}, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool {
		attempts, _ := sink.counts()
		return attempts > 2
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestInboxSink_WritesOneRowPerRecipient(t *testing.T) {
	store := memory.NewStore()
	sink := notify.NewInboxSink(store.Notifications())
	ctx := context.Background()

	err := sink.Deliver(ctx, domain.EngineEvent{
		Type:       domain.EngineEventExchangeCancelled,
		Recipients: []int32{1, 2},
		ExchangeID: 9,
		Reason:     "event cancelled",
	})
	require.NoError(t, err)

	for _, userID := range []int32{1, 2} {
		notes, total, err := store.Notifications().List(ctx, userID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Equal(t, "Exchange cancelled", notes[0].Title)
		assert.Equal(t, "Exchange #9 was cancelled: event cancelled", notes[0].Message)
		assert.Equal(t, "9", notes[0].Attributes["exchange_id"])
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-id", nil
}

func TestPushSink(t *testing.T) {
	ev := domain.EngineEvent{Type: domain.EngineEventPositionAccepted, Recipients: []int32{4, 1}, NeedID: 2, EventID: 1, ExchangeID: 6}

	t.Run("SendsToUserTopics", func(t *testing.T) {
		sender := &fakeSender{}
		sink := notify.NewPushSink(sender)

		require.NoError(t, sink.Deliver(context.Background(), ev))
		require.Len(t, sender.sent, 2)
		assert.Equal(t, "user-4", sender.sent[0].Topic)
		assert.Equal(t, "user-1", sender.sent[1].Topic)
		assert.Equal(t, "Positioning accepted", sender.sent[0].Notification.Title)
		assert.Equal(t, "2", sender.sent[0].Data["need_id"])
	})

	t.Run("SendFailure", func(t *testing.T) {
		sink := notify.NewPushSink(&fakeSender{err: errors.New("quota exceeded")})
		err := sink.Deliver(context.Background(), ev)
		assert.ErrorContains(t, err, "user-4")
	})

	t.Run("LogSender", func(t *testing.T) {
		sink := notify.NewPushSink(notify.LogSender{})
		assert.NoError(t, sink.Deliver(context.Background(), ev))
	})
}

func TestRender(t *testing.T) {
	msg := notify.Render(domain.EngineEvent{Type: domain.EngineEventPositionRejected, NeedID: 5, Reason: "need fully allocated"})
	assert.Equal(t, "Positioning rejected", msg.Title)
	assert.Contains(t, msg.Body, "need #5")
	assert.Equal(t, "need fully allocated", msg.Attributes["reason"])
	assert.NotContains(t, msg.Attributes, "exchange_id")
}
