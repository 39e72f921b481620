// Package notify fans payment outcomes out to in-process subscribers.
package notify

import (
	"sync"

	"github.com/fjod/go_billing/internal/domain"
)

// AllOrders subscribes to every outcome.
const AllOrders int64 = 0

const subscriberBuffer = 8

type subscriber struct {
	orderID int64
	ch      chan domain.PaymentOutcome
}

type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]subscriber)}
}

// Subscribe returns a channel receiving outcomes for orderID (or every order
// for AllOrders) and a func that unsubscribes and closes the channel.
func (b *Broker) Subscribe(orderID int64) (<-chan domain.PaymentOutcome, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan domain.PaymentOutcome, subscriberBuffer)
	b.subs[id] = subscriber{orderID: orderID, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the outcome.
func (b *Broker) Publish(outcome domain.PaymentOutcome) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, s := range b.subs {
		if s.orderID != AllOrders && s.orderID != outcome.OrderID {
			continue
		}
		select {
		case s.ch <- outcome:
			delivered++
		default:
		}
	}
	return delivered
}
