package protocol

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
)

// ============================================================
// Value nodes
// ============================================================

// Node is a fragment that serializes itself as a single XML element.
type Node interface {
	NodeName() string
}

const (
	DefaultCurrency = 986 // BRL, ISO 4217
	DefaultLanguage = "PT"

	wireDateTime = "2006-01-02T15:04:05"
)

// dateLayouts are tried in order when a caller hands over a date string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	wireDateTime,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ------------------------------------------------------------
// dados-ec
// ------------------------------------------------------------

// MerchantCredentials identifies the calling merchant (dados-ec).
type MerchantCredentials struct {
	code string
	key  string
}

type merchantCredentialsXML struct {
	XMLName xml.Name `xml:"dados-ec"`
	Code    string   `xml:"numero,omitempty"`
	Key     string   `xml:"chave,omitempty"`
}

// NewMerchantCredentials builds the dados-ec node. Empty values are
// omitted from the wire.
func NewMerchantCredentials(code, key string) *MerchantCredentials {
	return &MerchantCredentials{code: code, key: key}
}

func (m *MerchantCredentials) NodeName() string { return "dados-ec" }
func (m *MerchantCredentials) Code() string     { return m.code }
func (m *MerchantCredentials) Key() string      { return m.key }

func (m *MerchantCredentials) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.Encode(merchantCredentialsXML{Code: m.code, Key: m.key})
}

// ------------------------------------------------------------
// dados-cartao
// ------------------------------------------------------------

// CardData carries the card being charged (dados-cartao).
type CardData struct {
	number       string
	expiration   string
	indicator    domain.SecurityCodeIndicator
	securityCode string
	holderName   string
}

type cardDataXML struct {
	XMLName      xml.Name `xml:"dados-cartao"`
	Number       string   `xml:"numero,omitempty"`
	Expiration   string   `xml:"validade,omitempty"`
	Indicator    int      `xml:"indicador"`
	SecurityCode string   `xml:"codigo-seguranca,omitempty"`
	HolderName   string   `xml:"nome-portador,omitempty"`
}

// NewCardData validates and builds the dados-cartao node. expiration is
// YYYYMM. securityCode is mandatory when indicator is SecurityCodeInformed.
func NewCardData(number, expiration string, indicator domain.SecurityCodeIndicator, securityCode, holderName string) (*CardData, error) {
	if !indicator.Valid() {
		return nil, &domain.ErrValidation{Field: "indicador", Message: fmt.Sprintf("unknown security code indicator %d", indicator)}
	}
	if indicator == domain.SecurityCodeInformed && securityCode == "" {
		return nil, &domain.ErrValidation{Field: "codigo-seguranca", Message: "security code is required when the indicator is 1"}
	}
	if err := validateExpiration(expiration); err != nil {
		return nil, err
	}

	return &CardData{
		number:       number,
		expiration:   expiration,
		indicator:    indicator,
		securityCode: securityCode,
		holderName:   holderName,
	}, nil
}

func (c *CardData) NodeName() string                        { return "dados-cartao" }
func (c *CardData) Number() string                          { return c.number }
func (c *CardData) Expiration() string                      { return c.expiration }
func (c *CardData) Indicator() domain.SecurityCodeIndicator { return c.indicator }
func (c *CardData) SecurityCode() string                    { return c.securityCode }
func (c *CardData) HolderName() string                      { return c.holderName }

func (c *CardData) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.Encode(cardDataXML{
		Number:       c.number,
		Expiration:   c.expiration,
		Indicator:    int(c.indicator),
		SecurityCode: c.securityCode,
		HolderName:   c.holderName,
	})
}

// validateExpiration accepts YYYYMM with month 01..12.
func validateExpiration(yyyymm string) error {
	if len(yyyymm) != 6 {
		return &domain.ErrValidation{Field: "validade", Message: "expiration must be YYYYMM"}
	}
	for i := 0; i < len(yyyymm); i++ {
		if yyyymm[i] < '0' || yyyymm[i] > '9' {
			return &domain.ErrValidation{Field: "validade", Message: "expiration must be digits: YYYYMM"}
		}
	}
	mm := int(yyyymm[4]-'0')*10 + int(yyyymm[5]-'0')
	if mm < 1 || mm > 12 {
		return &domain.ErrValidation{Field: "validade", Message: "expiration month must be 01..12"}
	}
	return nil
}

// ------------------------------------------------------------
// dados-pedido
// ------------------------------------------------------------

// OrderData describes the merchant order (dados-pedido). Value is in minor
// currency units.
type OrderData struct {
	number   string
	value    int64
	currency int
	dateTime string
	language string
}

type orderDataXML struct {
	XMLName  xml.Name `xml:"dados-pedido"`
	Number   string   `xml:"numero,omitempty"`
	Value    int64    `xml:"valor,omitempty"`
	Currency int      `xml:"moeda,omitempty"`
	DateTime string   `xml:"data-hora"`
	Language string   `xml:"idioma,omitempty"`
}

// OrderOption customizes NewOrderData.
type OrderOption func(*orderConfig) error

type orderConfig struct {
	currency int
	language string
	at       time.Time
}

// WithCurrency sets the ISO 4217 numeric currency code.
func WithCurrency(code int) OrderOption {
	return func(c *orderConfig) error {
		if code < 0 || code > 999 {
			return &domain.ErrValidation{Field: "moeda", Message: fmt.Sprintf("invalid currency code %d", code)}
		}
		c.currency = code
		return nil
	}
}

// WithLanguage sets the language tag shown on the authentication page.
func WithLanguage(lang string) OrderOption {
	return func(c *orderConfig) error {
		c.language = lang
		return nil
	}
}

// WithTime sets the order timestamp.
func WithTime(t time.Time) OrderOption {
	return func(c *orderConfig) error {
		c.at = t
		return nil
	}
}

// WithDateTime parses s and uses it as the order timestamp. The offset,
// if any, is dropped: the wall clock is kept as written.
func WithDateTime(s string) OrderOption {
	return func(c *orderConfig) error {
		t, err := parseDateTime(s)
		if err != nil {
			return &domain.ErrValidation{Field: "data-hora", Message: fmt.Sprintf("unparseable date %q", s)}
		}
		c.at = t
		return nil
	}
}

// NewOrderData builds the dados-pedido node. value is truncated toward
// zero; currency defaults to 986, language to PT, timestamp to now.
func NewOrderData(number string, value float64, opts ...OrderOption) (*OrderData, error) {
	cfg := orderConfig{
		currency: DefaultCurrency,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.at.IsZero() {
		cfg.at = time.Now()
	}

	return &OrderData{
		number:   number,
		value:    int64(value),
		currency: cfg.currency,
		dateTime: cfg.at.Format(wireDateTime),
		language: cfg.language,
	}, nil
}

func (o *OrderData) NodeName() string { return "dados-pedido" }
func (o *OrderData) Number() string   { return o.number }
func (o *OrderData) Value() int64     { return o.value }
func (o *OrderData) Currency() int    { return o.currency }
func (o *OrderData) DateTime() string { return o.dateTime }
func (o *OrderData) Language() string { return o.language }

func (o *OrderData) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.Encode(orderDataXML{
		Number:   o.number,
		Value:    o.value,
		Currency: o.currency,
		DateTime: o.dateTime,
		Language: o.language,
	})
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// normalizeDateTime rewrites a wire timestamp into wireDateTime, keeping
// the input unchanged when it cannot be parsed.
func normalizeDateTime(s string) string {
	if s == "" {
		return ""
	}
	t, err := parseDateTime(s)
	if err != nil {
		return s
	}
	return t.Format(wireDateTime)
}

// ------------------------------------------------------------
// forma-pagamento
// ------------------------------------------------------------

// PaymentMethod selects product, installments and brand (forma-pagamento).
type PaymentMethod struct {
	product      domain.Product
	installments int
	brand        domain.Brand
}

type paymentMethodXML struct {
	XMLName      xml.Name `xml:"forma-pagamento"`
	Brand        string   `xml:"bandeira,omitempty"`
	Product      string   `xml:"produto"`
	Installments int      `xml:"parcelas"`
}

// NewPaymentMethod validates and builds the forma-pagamento node. brand
// may be empty.
func NewPaymentMethod(product domain.Product, installments int, brand domain.Brand) (*PaymentMethod, error) {
	if installments < 1 {
		return nil, &domain.ErrValidation{Field: "parcelas", Message: "installments must be an integer >= 1"}
	}
	if !product.Valid() {
		return nil, &domain.ErrValidation{Field: "produto", Message: fmt.Sprintf("unknown product %q", product)}
	}
	if product.SingleInstallment() && installments > 1 {
		return nil, &domain.ErrValidation{Field: "parcelas", Message: fmt.Sprintf("product %s accepts a single installment", product)}
	}
	if brand != "" && !brand.Valid() {
		return nil, &domain.ErrValidation{Field: "bandeira", Message: fmt.Sprintf("unknown brand %q", brand)}
	}

	return &PaymentMethod{product: product, installments: installments, brand: brand}, nil
}

func (p *PaymentMethod) NodeName() string        { return "forma-pagamento" }
func (p *PaymentMethod) Product() domain.Product { return p.product }
func (p *PaymentMethod) Installments() int       { return p.installments }
func (p *PaymentMethod) Brand() domain.Brand     { return p.brand }

func (p *PaymentMethod) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.Encode(paymentMethodXML{
		Brand:        string(p.brand),
		Product:      string(p.product),
		Installments: p.installments,
	})
}
