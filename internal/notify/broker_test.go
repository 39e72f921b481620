package notify

import (
	"testing"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_RoutesByOrder(t *testing.T) {
	b := NewBroker()

	mine, cancelMine := b.Subscribe(1)
	defer cancelMine()
	other, cancelOther := b.Subscribe(2)
	defer cancelOther()
	all, cancelAll := b.Subscribe(AllOrders)
	defer cancelAll()

	n := b.Publish(domain.PaymentOutcome{OrderID: 1, Status: domain.PaymentStatusSuccess})
	assert.Equal(t, 2, n)

	got := <-mine
	assert.Equal(t, int64(1), got.OrderID)
	got = <-all
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)
	assert.Empty(t, other)
}

func TestBroker_CancelClosesChannel(t *testing.T) {
	b := NewBroker()

	ch, cancel := b.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, b.Publish(domain.PaymentOutcome{OrderID: 1}))
}

func TestBroker_PublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	for iter := 0; iter < subscriberBuffer+5; iter++ {
		b.Publish(domain.PaymentOutcome{OrderID: 1})
	}
	require.Len(t, ch, subscriberBuffer)
}
