package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/furstore/internal/domain"
)

// Amounts are stored as decimal strings; bson has no codec for decimal.Decimal.
type sessionDocument struct {
	ID         string         `bson:"_id"`
	CustomerID int64          `bson:"customer_id,omitempty"`
	Items      []lineDocument `bson:"items"`
	Step       int            `bson:"step"`
	Billing    *billingDoc    `bson:"billing,omitempty"`
	Token      string         `bson:"submit_token,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

type lineDocument struct {
	ProductID       int64  `bson:"product_id"`
	Name            string `bson:"name"`
	Price           string `bson:"price"`
	DiscountPercent string `bson:"discount_percent"`
	Stock           int    `bson:"stock"`
	Thumbnail       string `bson:"thumbnail,omitempty"`
	Quantity        int    `bson:"quantity"`
}

type billingDoc struct {
	CustomerID     int64  `bson:"customer_id"`
	Phone          string `bson:"phone"`
	Address        string `bson:"address"`
	DeliveryMethod string `bson:"delivery_method"`
	PaymentMethod  string `bson:"payment_method"`
}

func toDocument(s *domain.Session) sessionDocument {
	doc := sessionDocument{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Items:      make([]lineDocument, 0, len(s.Items)),
		Step:       int(s.Checkout.Step),
		Token:      s.SubmitToken,
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
	for _, it := range s.Items {
		doc.Items = append(doc.Items, lineDocument{
			ProductID:       it.Product.ID,
			Name:            it.Product.Name,
			Price:           it.Product.Price.String(),
			DiscountPercent: it.Product.DiscountPercent.String(),
			Stock:           it.Product.Stock,
			Thumbnail:       it.Product.Thumbnail,
			Quantity:        it.Quantity,
		})
	}
	if b := s.Checkout.Billing; b != nil {
		doc.Billing = &billingDoc{
			CustomerID:     b.CustomerID,
			Phone:          b.Phone,
			Address:        b.Address,
			DeliveryMethod: string(b.DeliveryMethod),
			PaymentMethod:  string(b.PaymentMethod),
		}
	}
	return doc
}

func (d sessionDocument) toDomain() (*domain.Session, error) {
	s := &domain.Session{
		ID:          d.ID,
		CustomerID:  d.CustomerID,
		Items:       make([]domain.CartLineItem, 0, len(d.Items)),
		Checkout:    domain.CheckoutState{Step: domain.Step(d.Step)},
		SubmitToken: d.Token,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, it := range d.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, err
		}
		discount, err := decimal.NewFromString(it.DiscountPercent)
		if err != nil {
			return nil, err
		}
		s.Items = append(s.Items, domain.CartLineItem{
			Product: domain.ProductSnapshot{
				ID:              it.ProductID,
				Name:            it.Name,
				Price:           price,
				DiscountPercent: discount,
				Stock:           it.Stock,
				Thumbnail:       it.Thumbnail,
			},
			Quantity: it.Quantity,
		})
	}
	if b := d.Billing; b != nil {
		s.Checkout.Billing = &domain.BillingAddress{
			CustomerID:     b.CustomerID,
			Phone:          b.Phone,
			Address:        b.Address,
			DeliveryMethod: domain.DeliveryMethod(b.DeliveryMethod),
			PaymentMethod:  domain.PaymentMethod(b.PaymentMethod),
		}
	}
	return s, nil
}
