package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_billing/internal/domain"
	"github.com/fjod/go_billing/internal/logger"
	"github.com/fjod/go_billing/internal/pricing"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

type OrderReader interface {
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(orders OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if orders == nil {
		orders = make([]*domain.Order, 0)
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}

// GET /api/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

var exportHeaders = []string{
	"ID", "Customer", "Phone", "Items", "Total", "Discount",
	"Status", "Method", "Reference", "NeedsReview", "CreatedAt",
}

// GET /api/orders/export
func (h *OrdersHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	file, err := ordersWorkbook(orders)
	if err != nil {
		logger.FromContext(ctx).Error("failed to build orders workbook", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "export_failed", "failed to create Excel sheet")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(w); err != nil {
		logger.FromContext(ctx).Error("failed to write orders workbook", zap.Error(err))
	}
}

func ordersWorkbook(orders []*domain.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range orders {
		items := 0
		for _, line := range o.Items {
			items += line.Quantity
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.CustomerName)
		row.AddCell().SetValue(o.CustomerPhone)
		row.AddCell().SetValue(items)
		row.AddCell().SetValue(pricing.Format(o.TotalAmount))
		row.AddCell().SetValue(pricing.Format(o.DiscountAmount))
		row.AddCell().SetValue(o.PaymentStatus.String())
		row.AddCell().SetValue(o.PaymentMethod)
		row.AddCell().SetValue(o.PaymentReference)
		row.AddCell().SetValue(strconv.FormatBool(o.NeedsReview))
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}
