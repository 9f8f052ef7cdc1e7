package domain

import "github.com/shopspring/decimal"

func init() {
	// The backend API speaks JSON numbers for every amount.
	decimal.MarshalJSONWithoutQuotes = true
}

type ProductImage struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"imageUrl"`
}

// Product is a catalog entry as returned by the backend API.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Thumbnail       string          `json:"thumbnail"`
	SKU             string          `json:"sku"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	Description     string          `json:"description"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Images          []ProductImage  `json:"images"`
	Categories      []Category      `json:"categories"`
	CreatedAt       string          `json:"createdAt"`
}

// Snapshot copies the fields a cart line needs. Later catalog changes
// never reach a snapshot already held by a cart.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Thumbnail:       p.Thumbnail,
	}
}

type ProductSnapshot struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Stock           int             `json:"stock"`
	Thumbnail       string          `json:"thumbnail"`
}

// ProductPage is one page of the catalog listing.
type ProductPage struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Data     []Product `json:"data"`
}

// ProductQuery mirrors the catalog listing filters accepted by the backend.
type ProductQuery struct {
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"pageSize,omitempty"`
	Name       string `json:"name,omitempty"`
	Category   string `json:"category,omitempty"`
	SortField  string `json:"sortField,omitempty"`
	SortBy     string `json:"sortBy,omitempty"`
	FromAmount string `json:"fromAmount,omitempty"`
	ToAmount   string `json:"toAmount,omitempty"`
}
