package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavexpress/booking-platform/internal/events"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	to   []string
	err  error
}

func (r *recordingSender) SendText(_ context.Context, to, body string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.to = append(r.to, to)
	r.sent = append(r.sent, body)
	return "wamid.test", nil
}

func (r *recordingSender) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

type recordingPayments struct {
	mu     sync.Mutex
	events []events.PaymentStatusV1
	err    error
}

func (r *recordingPayments) ProcessPaymentEvent(_ context.Context, evt events.PaymentStatusV1) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingPayments) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func startTestWorker(t *testing.T, queue queueClient, sender TextSender, payments PaymentProcessor) context.CancelFunc {
	t.Helper()
	engine, _, _, _, _ := testEngine(t)
	worker := NewWorker(engine, queue, sender, payments, logging.Default(),
		WithWorkerCount(1), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	t.Cleanup(func() {
		cancel()
		worker.Wait()
	})
	return cancel
}

func TestWorkerProcessesChatJob(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := &recordingSender{}
	payments := &recordingPayments{}
	startTestWorker(t, queue, sender, payments)

	publisher := NewPublisher(queue, logging.Default())
	require.NoError(t, publisher.EnqueueMessage(context.Background(), testPhone, "hola"))

	require.Eventually(t, func() bool {
		return len(sender.messages()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Contains(t, sender.messages()[0], "Centro")
}

func TestWorkerProcessesPaymentJob(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := &recordingSender{}
	payments := &recordingPayments{}
	startTestWorker(t, queue, sender, payments)

	evt := events.PaymentStatusV1{
		Provider:  "wompi",
		EventID:   "evt_1",
		Reference: "BOOKING_42_1735000000",
		BookingID: 42,
		Status:    "APPROVED",
	}
	publisher := NewPublisher(queue, logging.Default())
	require.NoError(t, publisher.EnqueuePaymentEvent(context.Background(), evt))

	require.Eventually(t, func() bool {
		return payments.count() == 1
	}, 3*time.Second, 20*time.Millisecond)

	payments.mu.Lock()
	defer payments.mu.Unlock()
	assert.Equal(t, "BOOKING_42_1735000000", payments.events[0].Reference)
	assert.Equal(t, "APPROVED", payments.events[0].Status)
}

func TestWorkerDropsMalformedJob(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := &recordingSender{}
	payments := &recordingPayments{}
	startTestWorker(t, queue, sender, payments)

	require.NoError(t, queue.Send(context.Background(), "{not json"))
	require.NoError(t, NewPublisher(queue, logging.Default()).EnqueueMessage(context.Background(), testPhone, "hola"))

	// The broken job is discarded and the next one still processes.
	require.Eventually(t, func() bool {
		return len(sender.messages()) == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWorkerSendFailureDoesNotRetry(t *testing.T) {
	queue := NewMemoryQueue(8)
	sender := &recordingSender{err: errors.New("channel down")}
	payments := &recordingPayments{}
	startTestWorker(t, queue, sender, payments)

	require.NoError(t, NewPublisher(queue, logging.Default()).EnqueueMessage(context.Background(), testPhone, "hola"))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, sender.messages())
}

func TestPublisherPayloadShape(t *testing.T) {
	queue := NewMemoryQueue(1)
	publisher := NewPublisher(queue, logging.Default())
	require.NoError(t, publisher.EnqueueMessage(context.Background(), testPhone, "2"))

	msgs, err := queue.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var payload queuePayload
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Body), &payload))
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, jobTypeMessage, payload.Kind)
	require.NotNil(t, payload.Message)
	assert.Equal(t, testPhone, payload.Message.From)
	assert.Equal(t, "2", payload.Message.Body)
	assert.Nil(t, payload.Payment)
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	queue := NewMemoryQueue(1)

	start := time.Now()
	msgs, err := queue.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Nil(t, msgs)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}
