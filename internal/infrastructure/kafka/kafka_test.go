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
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// fakeReader returns queued results, then blocks until ctx is cancelled.
type fakeReader struct {
	results   []readResult
	stuckErr  error
	fetches   int
	committed []string
	commitErr error
}

type readResult struct {
	msg kafka.Message
	err error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.fetches++
	if r.stuckErr != nil {
		return kafka.Message{}, r.stuckErr
	}
	if len(r.results) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next.msg, next.err
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	for _, m := range msgs {
		r.committed = append(r.committed, string(m.Key))
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func newTestConsumer(r messageReader) *Consumer {
	c := newConsumer(r, nil)
	c.minBackoff = time.Millisecond
	c.maxBackoff = 4 * time.Millisecond
	return c
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p := &Producer{writer: w, now: func() time.Time { return at }}

	err := p.Publish(context.Background(), "sess-1", map[string]string{"type": "CartCleared"})

	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "sess-1", string(w.messages[0].Key))
	assert.JSONEq(t, `{"type":"CartCleared"}`, string(w.messages[0].Value))
	assert.Equal(t, at, w.messages[0].Time)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Producer{writer: w, now: time.Now}

	assert.Error(t, p.Publish(context.Background(), "k", "v"))
	assert.Error(t, p.Publish(context.Background(), "k", func() {}), "unencodable event")
}

func TestConsumer_ContinuesPastErrors(t *testing.T) {
	r := &fakeReader{results: []readResult{
		{msg: kafka.Message{Key: []byte("a"), Value: []byte(`1`)}},
		{err: errors.New("rebalance")},
		{msg: kafka.Message{Key: []byte("b"), Value: []byte(`2`)}},
		{msg: kafka.Message{Key: []byte("c"), Value: []byte(`3`)}},
	}}
	c := newTestConsumer(r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var keys []string
	err := c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		keys = append(keys, string(key))
		var n int
		require.NoError(t, json.Unmarshal(value, &n))
		if n == 2 {
			return errors.New("bad payload")
		}
		if n == 3 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []string{"a", "b", "c"}, r.committed, "rejected messages are committed too")
}

func TestConsumer_CommitFailureDoesNotStop(t *testing.T) {
	r := &fakeReader{
		results: []readResult{
			{msg: kafka.Message{Key: []byte("a")}},
			{msg: kafka.Message{Key: []byte("b")}},
		},
		commitErr: errors.New("coordinator moved"),
	}
	c := newTestConsumer(r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled int
	err := c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		handled++
		if handled == 2 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, handled)
	assert.Empty(t, r.committed)
}

func TestConsumer_BacksOffWhileBrokerIsDown(t *testing.T) {
	r := &fakeReader{stuckErr: errors.New("connection refused")}
	c := newConsumer(r, nil)
	c.minBackoff = 20 * time.Millisecond
	c.maxBackoff = 40 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := c.Consume(ctx, func(ctx context.Context, key, value []byte) error {
		t.Fatal("handler must not run")
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, r.fetches, 2)
	assert.LessOrEqual(t, r.fetches, 5)
}
