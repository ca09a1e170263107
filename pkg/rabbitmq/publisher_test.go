package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"frame-compress/constant"
	"frame-compress/dto"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	kinds      []string
	published  []published
	declareErr error
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name)
	f.kinds = append(f.kinds, kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishOutcome(t *testing.T) {
	ch := &fakeChannel{}
	pub, err := newPublisher(ch, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{defaultExchange}, ch.declared)
	assert.Equal(t, []string{amqp.ExchangeTopic}, ch.kinds)

	reduction := 80.0
	evt := dto.OutcomeEvent{
		SessionID:        uuid.New(),
		Action:           constant.ActionTypeFrameCompress,
		Status:           constant.ActionStatusSucceeded,
		SourceName:       "clip.mp4",
		Quality:          15,
		ResultURL:        "https://bucket/compressed.jpg",
		OriginalSize:     1000,
		CompressedSize:   200,
		ReductionPercent: &reduction,
		OccurredAt:       time.Now().UTC(),
	}
	require.NoError(t, pub.PublishOutcome(context.Background(), evt))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, defaultExchange, got.exchange)
	assert.Equal(t, "compression.frame_compress.succeeded", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var decoded dto.OutcomeEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, evt.SessionID, decoded.SessionID)
	assert.Equal(t, 80.0, *decoded.ReductionPercent)
}

func TestPublishOutcomeError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	pub, err := newPublisher(ch, "events", amqp.ExchangeFanout)
	require.NoError(t, err)

	err = pub.PublishOutcome(context.Background(), dto.OutcomeEvent{
		Action: constant.ActionTypeVideoCompress,
		Status: constant.ActionStatusFailed,
	})
	assert.ErrorContains(t, err, "compression.video_compress.failed")
}

func TestNewPublisherDeclareFailureClosesChannel(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newPublisher(ch, "events", "topic")
	require.Error(t, err)
	assert.True(t, ch.closed)
}
