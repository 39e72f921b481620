package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayOrder is what a gateway needs to open an order on its side.
type GatewayOrder struct {
	OrderID     int64
	AmountMinor int64
	Currency    string
}

func (o GatewayOrder) Receipt() string {
	return "receipt_" + strconv.FormatInt(o.OrderID, 10)
}

// Gateway returns a reference for an order. Confirmation of the payment
// itself happens elsewhere.
type Gateway interface {
	CreateOrder(ctx context.Context, order GatewayOrder) (string, error)
}

// LocalGateway synthesizes references without calling anyone.
type LocalGateway struct{}

func (LocalGateway) CreateOrder(ctx context.Context, _ GatewayOrder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14], nil
}

// orderCreator is the slice of the razorpay client we use.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway opens Razorpay orders behind a circuit breaker. The receipt
// carries our order id so Razorpay can dedupe retries.
type RazorpayGateway struct {
	orders  orderCreator
	breaker *gobreaker.CircuitBreaker[string]
	log     *zap.Logger
}

func NewRazorpayGateway(keyID, keySecret string, log *zap.Logger) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return newRazorpayGateway(client.Order, log)
}

func newRazorpayGateway(orders orderCreator, log *zap.Logger) *RazorpayGateway {
	settings := gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &RazorpayGateway{
		orders:  orders,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		log:     log,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, order GatewayOrder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref, err := g.breaker.Execute(func() (string, error) {
		body, err := g.orders.Create(map[string]interface{}{
			"amount":   order.AmountMinor,
			"currency": order.Currency,
			"receipt":  order.Receipt(),
		}, nil)
		if err != nil {
			return "", err
		}
		id, ok := body["id"].(string)
		if !ok || id == "" {
			return "", fmt.Errorf("razorpay response has no order id")
		}
		return id, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: razorpay create order: %v", ErrGatewayUnavailable, err)
	}

	g.log.Info("razorpay order created", zap.Int64("order_id", order.OrderID), zap.String("reference", ref))
	return ref, nil
}
