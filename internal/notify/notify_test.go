package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/models"
)

type memoryWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *memoryWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memoryWriter) Close() error { return nil }

func TestNotifyPublishesKeyedMessage(t *testing.T) {
	w := &memoryWriter{}
	occurred := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	p := &Producer{Writer: w, Topic: "bulletin.events", Logger: logger.NewDiscard(), Now: func() time.Time { return occurred }}

	ts := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	p.Notify(context.Background(), "event.approved", models.Event{ID: "abc", Title: "Rally", Timestamp: ts, Approved: true})

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "abc", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event.approved", string(msg.Headers[0].Value))

	var n models.EventNotification
	require.NoError(t, json.Unmarshal(msg.Value, &n))
	assert.Equal(t, "event.approved", n.Action)
	assert.Equal(t, "abc", n.EventID)
	assert.True(t, n.Approved)
	require.NotNil(t, n.Timestamp)
	assert.True(t, ts.Equal(*n.Timestamp))
	assert.True(t, occurred.Equal(n.OccurredAt))
}

func TestNotifyOmitsZeroTimestamp(t *testing.T) {
	w := &memoryWriter{}
	p := &Producer{Writer: w, Logger: logger.NewDiscard(), Now: time.Now}

	p.Notify(context.Background(), "event.deleted", models.Event{ID: "gone"})

	require.Len(t, w.msgs, 1)
	assert.NotContains(t, string(w.msgs[0].Value), `"timestamp"`)
}

func TestNotifySwallowsWriteErrors(t *testing.T) {
	w := &memoryWriter{err: errors.New("broker down")}
	p := &Producer{Writer: w, Logger: logger.NewDiscard(), Now: time.Now}

	assert.NotPanics(t, func() {
		p.Notify(context.Background(), "event.submitted", models.Event{ID: "x"})
	})
	assert.Empty(t, w.msgs)
}

type sliceReader struct {
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *sliceReader) Close() error { return nil }

func TestConsumerSkipsUndecodableMessages(t *testing.T) {
	good, err := json.Marshal(models.EventNotification{Action: "event.submitted", EventID: "a"})
	require.NoError(t, err)

	c := &Consumer{
		Reader: &sliceReader{msgs: []kafka.Message{
			{Value: []byte("not json")},
			{Value: good},
		}},
		Logger: logger.NewDiscard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	var got []models.EventNotification
	err = c.Run(ctx, func(n models.EventNotification) {
		got = append(got, n)
		cancel()
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].EventID)
}
