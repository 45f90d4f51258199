package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/apiwatch/internal/domain/notification"
	"github.com/NordCoder/apiwatch/internal/domain/outbox"
	"github.com/NordCoder/apiwatch/internal/obs/retry"
)

type fakeRepo struct {
	mu     sync.Mutex
	batch  []outbox.Message
	marked []string
	dead   []string
}

func (f *fakeRepo) Enqueue(context.Context, string, outbox.Kind, []byte) error { return nil }

func (f *fakeRepo) PickBatch(context.Context, int, time.Duration) ([]outbox.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.batch
	f.batch = nil
	return b, nil
}

func (f *fakeRepo) MarkSuccess(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, keys...)
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = append(f.dead, keys...)
	return nil
}

type fakeEvents struct {
	alerts []notification.Alert
	err    error
}

func (f *fakeEvents) PublishRunRequested(context.Context, string) error { return nil }

func (f *fakeEvents) PublishAlert(_ context.Context, a notification.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, a)
	return nil
}

func onePass() retry.Policy {
	return retry.Policy{Attempts: 1, Backoff: retry.ExpoJitter{Base: time.Millisecond}}
}

func alertMessage(t *testing.T, key string) outbox.Message {
	t.Helper()
	data, err := json.Marshal(notification.Alert{MonitorID: "m-1", MonitorName: "users", Status: 500})
	require.NoError(t, err)
	return outbox.Message{IdempotencyKey: key, Kind: outbox.KindMonitorAlert, Data: data}
}

func TestTickPublishesAlertsAndMarksThem(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{alertMessage(t, "k1"), {IdempotencyKey: "k2", Kind: 42}}}
	ev := &fakeEvents{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(ev, onePass()), 1, 10, time.Second, time.Minute)

	r.Tick(context.Background())

	require.Len(t, ev.alerts, 1)
	assert.Equal(t, "users", ev.alerts[0].MonitorName)
	assert.Equal(t, []string{"k1"}, repo.marked)
	assert.Equal(t, []string{"k2"}, repo.dead)
}

func TestTickLeavesFailedMessagesUnmarked(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{alertMessage(t, "k1")}}
	ev := &fakeEvents{err: errors.New("broker down")}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(ev, onePass()), 1, 10, time.Second, time.Minute)

	r.Tick(context.Background())

	assert.Empty(t, repo.marked)
	assert.Empty(t, repo.dead)
}

func TestTickMarksUndecodableMessagesFailed(t *testing.T) {
	repo := &fakeRepo{batch: []outbox.Message{{IdempotencyKey: "bad", Kind: outbox.KindMonitorAlert, Data: []byte("{")}}}
	ev := &fakeEvents{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(ev, onePass()), 1, 10, time.Second, time.Minute)

	r.Tick(context.Background())

	assert.Empty(t, ev.alerts)
	assert.Empty(t, repo.marked)
	assert.Equal(t, []string{"bad"}, repo.dead)
}

func TestGlobalHandlerRejectsBadPayload(t *testing.T) {
	h, err := MakeGlobalOutboxHandler(&fakeEvents{}, onePass())(outbox.KindMonitorAlert)
	require.NoError(t, err)
	assert.Error(t, h(context.Background(), []byte("{")))

	_, err = MakeGlobalOutboxHandler(&fakeEvents{}, onePass())(outbox.Kind(99))
	assert.Error(t, err)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	r := NewOutboxRunner(zap.NewNop(), &fakeRepo{}, MakeGlobalOutboxHandler(&fakeEvents{}, onePass()), 2, 10, 5*time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	r.Wait()
}
