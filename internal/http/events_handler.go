package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"github.com/fjod/go_billing/internal/notify"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

type OutcomeSubscriber interface {
	Subscribe(orderID int64) (<-chan domain.PaymentOutcome, func())
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type EventsHandler struct {
	outcomes OutcomeSubscriber
}

func NewEventsHandler(outcomes OutcomeSubscriber) *EventsHandler {
	return &EventsHandler{outcomes: outcomes}
}

// GET /api/events
// Streams every payment outcome as JSON text frames.
func (h *EventsHandler) StreamAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, notify.AllOrders)
}

// GET /api/orders/{order_id}/events
func (h *EventsHandler) StreamOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	h.stream(w, r, orderID)
}

func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request, orderID int64) {
	outcomes, cancel := h.outcomes.Subscribe(orderID)
	defer cancel()

	log := logger.FromContext(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// the read loop only notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case outcome, ok := <-outcomes:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outcome); err != nil {
				log.Debug("websocket write failed", zap.Int64("order_id", outcome.OrderID), zap.Error(err))
				return
			}
		}
	}
}
