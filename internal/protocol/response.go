package protocol

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
)

// ResponseKind tells which of the three response documents was received.
type ResponseKind int

const (
	ResponseError ResponseKind = iota + 1
	ResponseTID
	ResponseTransaction
)

// Response is the decoded response document. Exactly one of Err, TID or
// Transaction is meaningful, according to Kind.
type Response struct {
	Kind        ResponseKind
	Err         *domain.ErrProtocol
	TID         string
	Transaction *TransactionResult
}

// Stage names a lifecycle step reported inside a transaction document.
type Stage string

const (
	StageAuthentication Stage = "autenticacao"
	StageAuthorization  Stage = "autorizacao"
	StageCapture        Stage = "captura"
	StageCancellation   Stage = "cancelamento"
)

// StageResult is the outcome of one lifecycle step. ECI is only reported
// for authentication; ReturnCode and ProofCode only for authorization.
type StageResult struct {
	Stage      Stage
	Code       string
	Message    string
	DateTime   string
	ValueCents int64

	ECI        *int
	ReturnCode string // lr
	ProofCode  string // arp
}

// Value returns the amount in currency units (cents / 100).
func (s *StageResult) Value() decimal.Decimal {
	return decimal.New(s.ValueCents, -2)
}

// Indicator converts the raw ECI. It fails when no ECI was reported or the
// code is not mapped.
func (s *StageResult) Indicator() (domain.Indicator, error) {
	if s.ECI == nil {
		return 0, &domain.ErrUnknownMapping{Kind: "eci", Value: "absent"}
	}
	return domain.CodeToIndicator(*s.ECI)
}

// TransactionResult is the parsed transacao document. Nil stages were not
// reached.
type TransactionResult struct {
	TID               string
	PAN               string
	Status            int
	AuthenticationURL string
	Order             *OrderData
	Payment           *PaymentMethod

	Authentication *StageResult
	Authorization  *StageResult
	Capture        *StageResult
	Cancellation   *StageResult
}

// StatusCode interprets Status.
func (t *TransactionResult) StatusCode() (domain.TransactionStatus, error) {
	return domain.ParseStatus(t.Status)
}

// ============================================================
// Wire shapes
// ============================================================

type errorXML struct {
	Code    string `xml:"codigo"`
	Message string `xml:"mensagem"`
}

type tidXML struct {
	TID string `xml:"tid"`
}

type stageXML struct {
	Code     string  `xml:"codigo"`
	Message  string  `xml:"mensagem"`
	DateTime string  `xml:"data-hora"`
	Value    string  `xml:"valor"`
	ECI      *string `xml:"eci"`
	LR       string  `xml:"lr"`
	ARP      string  `xml:"arp"`
}

type orderWireXML struct {
	Number   string `xml:"numero"`
	Value    string `xml:"valor"`
	Currency string `xml:"moeda"`
	DateTime string `xml:"data-hora"`
	Language string `xml:"idioma"`
}

type paymentWireXML struct {
	Brand        string `xml:"bandeira"`
	Product      string `xml:"produto"`
	Installments string `xml:"parcelas"`
}

type transactionXML struct {
	TID               string          `xml:"tid"`
	PAN               string          `xml:"pan"`
	Order             *orderWireXML   `xml:"dados-pedido"`
	Payment           *paymentWireXML `xml:"forma-pagamento"`
	Authentication    *stageXML       `xml:"autenticacao"`
	Authorization     *stageXML       `xml:"autorizacao"`
	Capture           *stageXML       `xml:"captura"`
	Cancellation      *stageXML       `xml:"cancelamento"`
	Cancellations     []stageXML      `xml:"cancelamentos>cancelamento"`
	Status            *string         `xml:"status"`
	AuthenticationURL string          `xml:"url-autenticacao"`
}

// ============================================================
// Decoding
// ============================================================

// Decode reads the root element of raw and decodes the matching shape.
// Documents in ISO-8859-1 and other legacy charsets are accepted.
func Decode(raw string) (*Response, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel

	var root xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &domain.ErrUnexpectedDocument{Err: errors.New("empty document")}
			}
			return nil, &domain.ErrUnexpectedDocument{Err: err}
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = se
			break
		}
	}

	switch root.Name.Local {
	case "erro":
		var e errorXML
		if err := dec.DecodeElement(&e, &root); err != nil {
			return nil, &domain.ErrUnexpectedDocument{Root: root.Name.Local, Err: err}
		}
		return &Response{
			Kind: ResponseError,
			Err:  &domain.ErrProtocol{Code: strings.TrimSpace(e.Code), Message: strings.TrimSpace(e.Message)},
		}, nil

	case "retorno-tid":
		var t tidXML
		if err := dec.DecodeElement(&t, &root); err != nil {
			return nil, &domain.ErrUnexpectedDocument{Root: root.Name.Local, Err: err}
		}
		return &Response{Kind: ResponseTID, TID: strings.TrimSpace(t.TID)}, nil

	case "transacao":
		var t transactionXML
		if err := dec.DecodeElement(&t, &root); err != nil {
			return nil, &domain.ErrUnexpectedDocument{Root: root.Name.Local, Err: err}
		}
		return &Response{Kind: ResponseTransaction, Transaction: t.result()}, nil
	}

	return nil, &domain.ErrUnexpectedDocument{Root: root.Name.Local, Err: errors.New("unexpected root element")}
}

// ParseTransaction decodes raw into a TransactionResult. An error document
// is returned as *domain.ErrProtocol; a retorno-tid document yields a result
// holding only the tid.
func ParseTransaction(raw string) (*TransactionResult, error) {
	resp, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	switch resp.Kind {
	case ResponseError:
		return nil, resp.Err
	case ResponseTID:
		return &TransactionResult{TID: resp.TID, Status: int(domain.StatusUnknown)}, nil
	default:
		return resp.Transaction, nil
	}
}

func (t *transactionXML) result() *TransactionResult {
	res := &TransactionResult{
		TID:               strings.TrimSpace(t.TID),
		PAN:               strings.TrimSpace(t.PAN),
		Status:            int(domain.StatusUnknown),
		AuthenticationURL: strings.TrimSpace(t.AuthenticationURL),
		Authentication:    t.Authentication.stage(StageAuthentication),
		Authorization:     t.Authorization.stage(StageAuthorization),
		Capture:           t.Capture.stage(StageCapture),
		Cancellation:      t.Cancellation.stage(StageCancellation),
	}
	if res.Cancellation == nil && len(t.Cancellations) > 0 {
		res.Cancellation = t.Cancellations[0].stage(StageCancellation)
	}

	if t.Status != nil {
		if code, ok := atoi(*t.Status); ok {
			res.Status = code
		}
	}

	if o := t.Order; o != nil {
		cents, _ := atoi64(o.Value)
		currency, _ := atoi(o.Currency)
		res.Order = &OrderData{
			number:   strings.TrimSpace(o.Number),
			value:    cents,
			currency: currency,
			dateTime: normalizeDateTime(o.DateTime),
			language: strings.TrimSpace(o.Language),
		}
	}

	if p := t.Payment; p != nil {
		installments, _ := atoi(p.Installments)
		res.Payment = &PaymentMethod{
			product:      domain.Product(strings.TrimSpace(p.Product)),
			installments: installments,
			brand:        domain.Brand(strings.TrimSpace(p.Brand)),
		}
	}

	return res
}

func (s *stageXML) stage(stage Stage) *StageResult {
	if s == nil {
		return nil
	}

	cents, _ := atoi64(s.Value)
	out := &StageResult{
		Stage:      stage,
		Code:       strings.TrimSpace(s.Code),
		Message:    strings.TrimSpace(s.Message),
		DateTime:   normalizeDateTime(s.DateTime),
		ValueCents: cents,
		ReturnCode: strings.TrimSpace(s.LR),
		ProofCode:  strings.TrimSpace(s.ARP),
	}
	if s.ECI != nil {
		if eci, ok := atoi(*s.ECI); ok {
			out.ECI = &eci
		}
	}
	return out
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

func atoi64(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}
