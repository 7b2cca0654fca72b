package amqp_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	petri "github.com/jt05610/xschema"
	xamqp "github.com/jt05610/xschema/amqp"
	"github.com/jt05610/xschema/examples"
	"github.com/jt05610/xschema/runner"
)

type acknowledger struct {
	mu       sync.Mutex
	acked    []uint64
	rejected []uint64
}

func (a *acknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *acknowledger) Nack(tag uint64, _ bool, _ bool) error {
	return a.Reject(tag, false)
}

func (a *acknowledger) Reject(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejected = append(a.rejected, tag)
	return nil
}

func deliveries(ack amqp.Acknowledger, bodies ...string) <-chan amqp.Delivery {
	ch := make(chan amqp.Delivery, len(bodies))
	for i, b := range bodies {
		ch <- amqp.Delivery{Acknowledger: ack, DeliveryTag: uint64(i + 1), Body: []byte(b)}
	}
	close(ch)
	return ch
}

func TestDecode(t *testing.T) {
	sig, err := xamqp.Decode([]byte(`{"kind":"mark","place":"Close_sensed","token":"Default","count":1}`))
	require.NoError(t, err)
	assert.Equal(t, &xamqp.Signal{Kind: xamqp.MarkSignal, Place: "Close_sensed", Token: "Default", Count: 1}, sig)

	for _, body := range []string{
		`not json`,
		`{"kind":"launch"}`,
		`{"kind":"mark","place":"P"}`,
		`{"kind":"fire"}`,
	} {
		_, err := xamqp.Decode([]byte(body))
		assert.ErrorIs(t, err, xamqp.ErrInvalidSignal, body)
	}
}

func TestSource_Serve(t *testing.T) {
	r := runner.New(examples.CloseHand(), nil)
	require.NoError(t, r.MarkPlace("Enabled", examples.Default, 1))
	ack := &acknowledger{}
	err := xamqp.NewSource(r, nil).Serve(context.Background(), deliveries(ack,
		`{"kind":"mark","place":"Close_sensed","token":"Default","count":1}`,
		`{"kind":"fire","transition":"Close"}`,
		`{"kind":"mark","place":"Nowhere","token":"Default","count":1}`,
		`{"kind":"teleport"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2, 3, 4}, ack.rejected, "Close is not enabled yet")
	n, err := r.Net().Marking("Close_sensed", examples.Default)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSource_DrivesRun(t *testing.T) {
	r := runner.New(examples.CloseHand(), nil)
	require.NoError(t, r.MarkPlace("Enabled", examples.Default, 1))
	require.NoError(t, r.SetWait(true))
	src := xamqp.NewSource(r, nil)
	ack := &acknowledger{}
	require.NoError(t, r.SetTransitionContext("Close", runner.ContextFunc(func() error {
		go func() {
			_ = src.Serve(context.Background(), deliveries(ack,
				`{"kind":"mark","place":"Close_sensed","token":"Default","count":1}`,
				`{"kind":"fire","transition":"Close"}`,
			))
		}()
		return nil
	})))
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.Completed, res.Status)
	assert.Equal(t, 4, res.Rounds)
}

func TestSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := xamqp.NewSource(runner.New(examples.BasicNet(), nil), nil).Serve(ctx, make(chan amqp.Delivery))
	assert.ErrorIs(t, err, context.Canceled)
}

type channel struct {
	published []amqp.Publishing
	keys      []string
}

func (c *channel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func TestPublisher(t *testing.T) {
	ch := &channel{}
	r := runner.New(examples.BasicNet(), nil)
	require.NoError(t, r.MarkPlace("Enabled", examples.Default, 1))
	require.NoError(t, r.AddListener(xamqp.NewPublisher(ch, "xschema", "grasp.report")))
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ch.published, 4)
	assert.Equal(t, "xschema/grasp.report", ch.keys[0])

	last := ch.published[3]
	assert.Equal(t, res.RunID, last.Headers["x-run-id"])
	assert.Equal(t, "3", last.Headers["x-round"])
	var rep petri.StateReport
	require.NoError(t, json.Unmarshal(last.Body, &rep))
	assert.Equal(t, "Finish", rep.Transition)
	assert.Equal(t, 1, rep.Count("Done", examples.Default))
}
