package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusDelivering,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo is the admin panel rule: any other status, unless the order is closed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s.IsTerminal() {
		return false
	}
	return s != next
}

// CustomerCancellable reports whether the customer may still cancel the order themselves.
func (s OrderStatus) CustomerCancellable() bool {
	return s == OrderStatusPending
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderProduct is one line of the order creation payload.
type OrderProduct struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// OrderRequest is the order creation payload. Field casing matches the backend API.
type OrderRequest struct {
	CustomerID     int64           `json:"customerId"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	DeliveryMethod DeliveryMethod  `json:"deliveryMethod"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	SubTotal       decimal.Decimal `json:"subTotal"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	Products       []OrderProduct  `json:"products"`
}

// OrderResult is the outcome of one order creation attempt.
type OrderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID int64  `json:"orderId,omitempty"`
}

type OrderCustomer struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type OrderLineProduct struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Thumbnail       string          `json:"thumbnail"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type OrderLine struct {
	Quantity int              `json:"quantity"`
	Product  OrderLineProduct `json:"product"`
}

// Order is a persisted order as the backend reports it.
type Order struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customerId"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	DeliveryMethod DeliveryMethod  `json:"deliveryMethod"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	Status         OrderStatus     `json:"status"`
	SubTotal       decimal.Decimal `json:"subTotal"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Customer       OrderCustomer   `json:"customer"`
	OrderProducts  []OrderLine     `json:"orderProducts"`
}

type OrderList struct {
	Message    string  `json:"message"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Data       []Order `json:"data"`
}

// OrderQuery holds the order listing filters.
type OrderQuery struct {
	Page      int         `json:"page"`
	PageSize  int         `json:"pageSize"`
	Status    OrderStatus `json:"status,omitempty"`
	SortField string      `json:"sortField,omitempty"`
	SortBy    string      `json:"sortBy,omitempty"`
	From      string      `json:"from,omitempty"`
	To        string      `json:"to,omitempty"`
}

// OrderSuccessPath is the navigation target after a placed order.
func OrderSuccessPath(orderID int64) string {
	return fmt.Sprintf("/me/order-success/%d", orderID)
}
