package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/furstore/internal/domain"
)

const (
	msgOrderPlaced = "Order made successfully"
	msgOrderFailed = "Failed to make order"
)

type createOrderResponse struct {
	Message string `json:"message"`
	Order   *struct {
		ID int64 `json:"id"`
	} `json:"order"`
}

// CreateOrder posts an order. Only 201 with an order body counts as placed;
// any other answer is an unsuccessful result carrying the backend's message.
// The error is reserved for requests that never got an answer.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/order", nil, req)
	if err != nil {
		return domain.OrderResult{}, err
	}
	var body createOrderResponse
	if err := decode(resp, &body); err != nil {
		c.log.Warn().Err(err).Int("status", resp.status).Msg("unreadable order response")
	}
	if resp.status == http.StatusCreated && body.Order != nil {
		return domain.OrderResult{Success: true, Message: msgOrderPlaced, OrderID: body.Order.ID}, nil
	}
	msg := body.Message
	if msg == "" {
		msg = msgOrderFailed
	}
	return domain.OrderResult{Success: false, Message: msg}, nil
}

type orderResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (c *Client) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/%d", id), nil, nil)
	if err != nil {
		return domain.Order{}, err
	}
	if resp.status != http.StatusOK {
		return domain.Order{}, apiError(resp)
	}
	var body orderResponse
	if err := decode(resp, &body); err != nil {
		return domain.Order{}, err
	}
	if body.Order == nil {
		return domain.Order{}, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return *body.Order, nil
}

func (c *Client) ListCustomerOrders(ctx context.Context, customerID int64, q domain.OrderQuery) (domain.OrderList, error) {
	return c.listOrders(ctx, fmt.Sprintf("/order/user/%d", customerID), q)
}

func (c *Client) ListOrders(ctx context.Context, q domain.OrderQuery) (domain.OrderList, error) {
	return c.listOrders(ctx, "/order", q)
}

func (c *Client) listOrders(ctx context.Context, path string, q domain.OrderQuery) (domain.OrderList, error) {
	resp, err := c.do(ctx, http.MethodGet, path, orderQueryValues(q), nil)
	if err != nil {
		return domain.OrderList{}, err
	}
	if resp.status != http.StatusOK {
		return domain.OrderList{}, apiError(resp)
	}
	var list domain.OrderList
	if err := decode(resp, &list); err != nil {
		return domain.OrderList{}, err
	}
	if list.Data == nil {
		list.Data = []domain.Order{}
	}
	return list, nil
}

// UpdateOrderStatus asks the backend to move an order and returns its message.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (string, error) {
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/order/%d", id), nil, map[string]domain.OrderStatus{"status": status})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", apiError(resp)
	}
	var body messageBody
	if err := decode(resp, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

func orderQueryValues(q domain.OrderQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.SortField != "" {
		v.Set("sortField", q.SortField)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	return v
}
