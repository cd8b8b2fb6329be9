package handler

import (
	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/observability"
	"github.com/boddenberg/cielo-gateway-go/internal/protocol"
	"github.com/boddenberg/cielo-gateway-go/internal/service"
)

// ============================================================
// Request bodies
// ============================================================

type cardBody struct {
	Number       string `json:"number"`
	Expiration   string `json:"expiration"` // YYYYMM
	Indicator    *int   `json:"indicator,omitempty"`
	SecurityCode string `json:"securityCode,omitempty"`
	HolderName   string `json:"holderName,omitempty"`
}

func (b *cardBody) input() *service.CardInput {
	if b == nil {
		return nil
	}
	indicator := domain.SecurityCodeNotInformed
	switch {
	case b.Indicator != nil:
		indicator = domain.SecurityCodeIndicator(*b.Indicator)
	case b.SecurityCode != "":
		indicator = domain.SecurityCodeInformed
	}
	return &service.CardInput{
		Number:       b.Number,
		Expiration:   b.Expiration,
		Indicator:    indicator,
		SecurityCode: b.SecurityCode,
		HolderName:   b.HolderName,
	}
}

type orderBody struct {
	Number   string `json:"number"`
	Amount   int64  `json:"amount"` // cents
	Currency int    `json:"currency,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	Language string `json:"language,omitempty"`
}

func (b orderBody) input() service.OrderInput {
	return service.OrderInput{
		Number:   b.Number,
		Value:    b.Amount,
		Currency: b.Currency,
		DateTime: b.DateTime,
		Language: b.Language,
	}
}

type paymentBody struct {
	Product      string `json:"product"`
	Installments int    `json:"installments,omitempty"`
	Brand        string `json:"brand,omitempty"`
}

func (b paymentBody) input() service.PaymentInput {
	return service.PaymentInput{
		Product:      domain.Product(b.Product),
		Installments: b.Installments,
		Brand:        domain.Brand(b.Brand),
	}
}

type tidBody struct {
	Payment paymentBody `json:"payment"`
}

type transactionBody struct {
	Order         orderBody   `json:"order"`
	Payment       paymentBody `json:"payment"`
	Card          *cardBody   `json:"card,omitempty"`
	ReturnURL     string      `json:"returnUrl,omitempty"`
	AuthorizeMode *int        `json:"authorizeMode,omitempty"`
	AutoCapture   *bool       `json:"autoCapture,omitempty"`
	FreeField     string      `json:"freeField,omitempty"`
}

type authorizationBody struct {
	Card        cardBody    `json:"card"`
	Order       orderBody   `json:"order"`
	Payment     paymentBody `json:"payment"`
	AutoCapture *bool       `json:"autoCapture,omitempty"`
}

type captureBody struct {
	Amount *int64 `json:"amount,omitempty"` // cents
	Annex  string `json:"annex,omitempty"`
}

// ============================================================
// Responses
// ============================================================

type stageResponse struct {
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	DateTime   string  `json:"dateTime,omitempty"`
	Amount     int64   `json:"amount"`
	AmountText string  `json:"amountText"`
	ECI        *int    `json:"eci,omitempty"`
	Indicator  *string `json:"indicator,omitempty"`
	ReturnCode string  `json:"returnCode,omitempty"`
	ProofCode  string  `json:"proofCode,omitempty"`
}

type orderResponse struct {
	Number   string `json:"number"`
	Amount   int64  `json:"amount"`
	Currency int    `json:"currency"`
	DateTime string `json:"dateTime,omitempty"`
	Language string `json:"language,omitempty"`
}

type paymentResponse struct {
	Product      string `json:"product"`
	Installments int    `json:"installments"`
	Brand        string `json:"brand,omitempty"`
}

type transactionResponse struct {
	ExchangeID        string           `json:"exchangeId,omitempty"`
	Cached            bool             `json:"cached,omitempty"`
	TID               string           `json:"tid"`
	PAN               string           `json:"pan,omitempty"`
	Status            int              `json:"status"`
	StatusName        string           `json:"statusName"`
	Final             bool             `json:"final"`
	AuthenticationURL string           `json:"authenticationUrl,omitempty"`
	Order             *orderResponse   `json:"order,omitempty"`
	Payment           *paymentResponse `json:"payment,omitempty"`
	Authentication    *stageResponse   `json:"authentication,omitempty"`
	Authorization     *stageResponse   `json:"authorization,omitempty"`
	Capture           *stageResponse   `json:"capture,omitempty"`
	Cancellation      *stageResponse   `json:"cancellation,omitempty"`
}

func newTransactionResponse(out *service.Outcome) transactionResponse {
	res := out.Transaction
	resp := transactionResponse{
		Cached:            out.Cached,
		TID:               res.TID,
		PAN:               res.PAN,
		Status:            res.Status,
		AuthenticationURL: res.AuthenticationURL,
		Authentication:    newStageResponse(res.Authentication),
		Authorization:     newStageResponse(res.Authorization),
		Capture:           newStageResponse(res.Capture),
		Cancellation:      newStageResponse(res.Cancellation),
	}
	if !out.Cached {
		resp.ExchangeID = out.ExchangeID.String()
	}

	status, err := res.StatusCode()
	resp.StatusName = status.String()
	resp.Final = err == nil && status.IsFinal()

	if o := res.Order; o != nil {
		resp.Order = &orderResponse{
			Number:   o.Number(),
			Amount:   o.Value(),
			Currency: o.Currency(),
			DateTime: o.DateTime(),
			Language: o.Language(),
		}
	}
	if p := res.Payment; p != nil {
		resp.Payment = &paymentResponse{
			Product:      string(p.Product()),
			Installments: p.Installments(),
			Brand:        string(p.Brand()),
		}
	}
	return resp
}

func newStageResponse(s *protocol.StageResult) *stageResponse {
	if s == nil {
		return nil
	}
	resp := &stageResponse{
		Code:       s.Code,
		Message:    s.Message,
		DateTime:   s.DateTime,
		Amount:     s.ValueCents,
		AmountText: s.Value().StringFixed(2),
		ECI:        s.ECI,
		ReturnCode: s.ReturnCode,
		ProofCode:  s.ProofCode,
	}
	if ind, err := s.Indicator(); err == nil {
		name := ind.String()
		resp.Indicator = &name
	}
	return resp
}

type tidResponse struct {
	ExchangeID string `json:"exchangeId"`
	TID        string `json:"tid"`
}

// maskedCard is logged instead of the card body.
func maskedCard(b *cardBody) string {
	if b == nil {
		return ""
	}
	return observability.MaskPAN(b.Number)
}
