package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/furstore/internal/domain"
)

func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil)
	if err != nil {
		return domain.Product{}, err
	}
	if resp.status != http.StatusOK {
		return domain.Product{}, apiError(resp)
	}
	var p domain.Product
	if err := decode(resp, &p); err != nil {
		return domain.Product{}, err
	}
	if p.ID == 0 {
		return domain.Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return p, nil
}

func (c *Client) Products(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	for key, val := range map[string]string{
		"name":       q.Name,
		"category":   q.Category,
		"sortField":  q.SortField,
		"sortBy":     q.SortBy,
		"fromAmount": q.FromAmount,
		"toAmount":   q.ToAmount,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}

	resp, err := c.do(ctx, http.MethodGet, "/products", v, nil)
	if err != nil {
		return domain.ProductPage{}, err
	}
	if resp.status != http.StatusOK {
		return domain.ProductPage{}, apiError(resp)
	}
	var page domain.ProductPage
	if err := decode(resp, &page); err != nil {
		return domain.ProductPage{}, err
	}
	if page.Data == nil {
		page.Data = []domain.Product{}
	}
	return page, nil
}

type categoriesResponse struct {
	Data []domain.Category `json:"data"`
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.do(ctx, http.MethodGet, "/category", nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, apiError(resp)
	}
	var body categoriesResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		body.Data = []domain.Category{}
	}
	return body.Data, nil
}
