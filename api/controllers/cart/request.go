package cart

import (
	cartsvc "github.com/sgalleguillos/brokerpulse-backend/internal/cart"
	"github.com/sgalleguillos/brokerpulse-backend/internal/pricing"
)

// addItemRequest mirrors the client-durable cart line record, Spanish field
// names included.
type addItemRequest struct {
	ProductID   string            `json:"productId" validate:"required"`
	Code        string            `json:"code"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"descripcion"`
	PriceNet    int64             `json:"precio_neto" validate:"gte=0"`
	PriceGross  int64             `json:"precio_bruto" validate:"gte=0"`
	Quantity    int               `json:"cantidad" validate:"required,gt=0"`
	Metadata    map[string]string `json:"metadata"`
}

type updateQuantityRequest struct {
	ProductID string            `json:"productId" validate:"required"`
	Quantity  int               `json:"cantidad" validate:"gte=0"`
	Metadata  map[string]string `json:"metadata"`
}

type removeItemRequest struct {
	ProductID string            `json:"productId" validate:"required"`
	Metadata  map[string]string `json:"metadata"`
}

// toLineItem maps the request onto a cart line. Clients may send only one
// side of the price pair; the missing side is derived per line from the
// configured tax rate so stored lines always carry both.
func toLineItem(payload addItemRequest, taxRate float64) cartsvc.LineItem {
	net, gross := payload.PriceNet, payload.PriceGross
	switch {
	case net == 0 && gross > 0:
		net = pricing.NetFromGross(gross, taxRate)
	case gross == 0 && net > 0:
		gross = pricing.GrossFromNet(net, taxRate)
	}
	return cartsvc.LineItem{
		ProductID:      payload.ProductID,
		Code:           payload.Code,
		Name:           payload.Name,
		Description:    payload.Description,
		UnitPriceNet:   net,
		UnitPriceGross: gross,
		Quantity:       payload.Quantity,
		Metadata:       payload.Metadata,
	}
}
