package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/shopnow/internal/order/application"
	"github.com/dmehra2102/shopnow/internal/order/domain"
	"github.com/dmehra2102/shopnow/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

// productID accepts both a JSON string and a JSON number.
type productID string

func (p *productID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = productID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("productId must be a string or number")
	}
	*p = productID(n.String())
	return nil
}

type lineItemReq struct {
	ProductID productID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type createOrderReq struct {
	OrderLineItems []lineItemReq `json:"orderLineItems"`
}

type lineItemResp struct {
	SKUCode  string          `json:"skuCode"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type orderResp struct {
	ID             int64          `json:"id"`
	OrderNumber    string         `json:"orderNumber"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	OrderLineItems []lineItemResp `json:"orderLineItems"`
}

func toResponse(o domain.Order) orderResp {
	items := make([]lineItemResp, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, lineItemResp{SKUCode: li.SKUCode(), Price: li.Price(), Quantity: li.Quantity()})
	}
	return orderResp{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		OrderLineItems: items,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
	})
	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid body: "+err.Error())
		return
	}

	items := make([]domain.RequestedItem, 0, len(req.OrderLineItems))
	for i, li := range req.OrderLineItems {
		if li.Quantity <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("orderLineItems[%d]: quantity must be positive", i))
			return
		}
		items = append(items, domain.RequestedItem{ProductID: string(li.ProductID), Quantity: li.Quantity})
	}
	span.SetAttributes(attribute.Int("order.requested_items", len(items)))

	o, err := h.service.PlaceOrder(ctx, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		h.writeErr(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/orders/"+strconv.FormatInt(o.ID, 10))
	httpx.WriteJSON(w, http.StatusCreated, toResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResponse(o))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "order_not_found", "Order not found: "+raw)
		return
	}
	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(o))
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *application.ProductNotFoundError
	switch {
	case errors.As(err, &notFound):
		httpx.WriteError(w, http.StatusNotFound, "product_not_found", "Product not found: "+notFound.ProductID)
	case errors.Is(err, application.ErrProductNotFound):
		httpx.WriteError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, application.ErrCatalogUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog service unavailable, retry later")
	case errors.Is(err, application.ErrOrderNotFound):
		httpx.WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, application.ErrStorage):
		h.log.ErrorContext(r.Context(), "order storage failure", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "storage_failure", "order could not be stored")
	default:
		h.log.ErrorContext(r.Context(), "order request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
