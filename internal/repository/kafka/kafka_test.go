package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/NordCoder/apiwatch/internal/domain/kafka"
	"github.com/NordCoder/apiwatch/internal/domain/notification"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func newTestProducer(w writer, topic string) *Producer {
	return &Producer{w: w, topic: topic, log: zap.NewNop()}
}

func TestMonitorEventsPublishRunRequested(t *testing.T) {
	fw := &fakeWriter{}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewMonitorEventsKafka(newTestProducer(fw, "runs"), nil)
	ev.now = func() time.Time { return now }

	require.NoError(t, ev.PublishRunRequested(context.Background(), "m-1"))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "m-1", string(fw.msgs[0].Key))

	var got domain.RunRequest
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &got))
	assert.Equal(t, "m-1", got.MonitorID)
	assert.True(t, now.Equal(got.RequestedAt))

	assert.ErrorIs(t, ev.PublishAlert(context.Background(), notification.Alert{}), ErrNoProducer)
}

func TestMonitorEventsPublishAlert(t *testing.T) {
	fw := &fakeWriter{}
	ev := NewMonitorEventsKafka(nil, newTestProducer(fw, "alerts"))

	a := notification.Alert{MonitorID: "m-2", MonitorName: "orders", Status: 503, ResponseTime: 40}
	require.NoError(t, ev.PublishAlert(context.Background(), a))
	require.Len(t, fw.msgs, 1)

	var got notification.Alert
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &got))
	assert.Equal(t, a.MonitorName, got.MonitorName)
	assert.Equal(t, 503, got.Status)

	assert.ErrorIs(t, ev.PublishRunRequested(context.Background(), "x"), ErrNoProducer)
}

func TestProducerWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newTestProducer(&fakeWriter{err: boom}, "runs")
	assert.ErrorIs(t, p.PublishJSON(context.Background(), nil, map[string]string{"a": "b"}), boom)
}

func TestJSONHandler(t *testing.T) {
	var got domain.RunRequest
	h := JSONHandler(func(_ context.Context, key []byte, m domain.RunRequest) error {
		got = m
		assert.Equal(t, "k", string(key))
		return nil
	})

	require.NoError(t, h(context.Background(), []byte("k"), []byte(`{"monitor_id":"m-9"}`)))
	assert.Equal(t, "m-9", got.MonitorID)

	assert.Error(t, h(context.Background(), []byte("k"), []byte(`{not json`)))
}

func TestHeaderCarrier(t *testing.T) {
	var hs []kafka.Header
	c := headerCarrier{&hs}
	c.Set("traceparent", "00-abc-def-01")
	c.Set("traceparent", "00-abc-def-02")
	c.Set("baggage", "k=v")
	require.Len(t, hs, 2)

	assert.Equal(t, "00-abc-def-02", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.Equal(t, []string{"traceparent", "baggage"}, c.Keys())
}

func TestAllHaveLeader(t *testing.T) {
	led := kafka.Partition{Leader: kafka.Broker{ID: 1}}
	orphan := kafka.Partition{Leader: kafka.Broker{ID: -1}}
	assert.True(t, allHaveLeader([]kafka.Partition{led, led}))
	assert.False(t, allHaveLeader([]kafka.Partition{led, orphan}))
}

func TestEnsureTopicsNeedsBrokers(t *testing.T) {
	assert.NoError(t, EnsureTopics(context.Background(), nil, nil))
	assert.Error(t, EnsureTopics(context.Background(), nil, nil, TopicSpec{Name: "x"}))
}
