package service

import (
	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/protocol"
)

// CardInput carries the card data collected by the merchant.
type CardInput struct {
	Number       string
	Expiration   string // YYYYMM
	Indicator    domain.SecurityCodeIndicator
	SecurityCode string
	HolderName   string
}

func (c CardInput) node() (*protocol.CardData, error) {
	return protocol.NewCardData(c.Number, c.Expiration, c.Indicator, c.SecurityCode, c.HolderName)
}

// OrderInput describes the merchant order. Value is in cents. DateTime,
// Currency and Language fall back to now, 986 and PT.
type OrderInput struct {
	Number   string
	Value    int64
	Currency int
	DateTime string
	Language string
}

func (o OrderInput) node() (*protocol.OrderData, error) {
	if o.Number == "" {
		return nil, &domain.ErrValidation{Field: "numero", Message: "order number is required"}
	}
	if o.Value < 0 {
		return nil, &domain.ErrValidation{Field: "valor", Message: "order value must not be negative"}
	}

	var opts []protocol.OrderOption
	if o.Currency != 0 {
		opts = append(opts, protocol.WithCurrency(o.Currency))
	}
	if o.Language != "" {
		opts = append(opts, protocol.WithLanguage(o.Language))
	}
	if o.DateTime != "" {
		opts = append(opts, protocol.WithDateTime(o.DateTime))
	}
	return protocol.NewOrderData(o.Number, float64(o.Value), opts...)
}

// PaymentInput selects product, installments and brand.
type PaymentInput struct {
	Product      domain.Product
	Installments int
	Brand        domain.Brand
}

func (p PaymentInput) node() (*protocol.PaymentMethod, error) {
	installments := p.Installments
	if installments == 0 {
		installments = 1
	}
	return protocol.NewPaymentMethod(p.Product, installments, p.Brand)
}

// TIDInput is the input of RequestTID.
type TIDInput struct {
	Payment PaymentInput
}

// TransactionInput is the input of CreateTransaction. Card is optional:
// without it the buyer types the card on the network's page.
type TransactionInput struct {
	Order         OrderInput
	Payment       PaymentInput
	Card          *CardInput
	ReturnURL     string
	AuthorizeMode *int
	AutoCapture   *bool
	FreeField     string
}

func (in TransactionInput) nodes() ([]protocol.Node, error) {
	var nodes []protocol.Node
	if in.Card != nil {
		card, err := in.Card.node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, card)
	}

	order, err := in.Order.node()
	if err != nil {
		return nil, err
	}
	payment, err := in.Payment.node()
	if err != nil {
		return nil, err
	}
	return append(nodes, order, payment), nil
}

// AuthorizationInput is the input of Authorize.
type AuthorizationInput struct {
	TID         string
	Card        CardInput
	Order       OrderInput
	Payment     PaymentInput
	AutoCapture *bool
}

func (in AuthorizationInput) nodes() ([]protocol.Node, error) {
	if in.TID == "" {
		return nil, &domain.ErrValidation{Field: "tid", Message: "tid is required"}
	}

	card, err := in.Card.node()
	if err != nil {
		return nil, err
	}
	order, err := in.Order.node()
	if err != nil {
		return nil, err
	}
	payment, err := in.Payment.node()
	if err != nil {
		return nil, err
	}
	return []protocol.Node{card, order, payment}, nil
}

// CaptureInput is the input of Capture. AmountCents nil captures the full
// authorized amount.
type CaptureInput struct {
	TID         string
	AmountCents *int64
	Annex       string
}

func cardNumber(c *CardInput) string {
	if c == nil {
		return ""
	}
	return c.Number
}
