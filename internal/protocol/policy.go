package protocol

import (
	"strconv"
	"strings"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
)

// Kind identifies one of the six request variants.
type Kind int

const (
	KindAuthorization Kind = iota + 1
	KindTransaction
	KindCapture
	KindCancellation
	KindQuery
	KindTID
)

var kindNames = map[Kind]string{
	KindAuthorization: "authorization",
	KindTransaction:   "transaction",
	KindCapture:       "capture",
	KindCancellation:  "cancellation",
	KindQuery:         "query",
	KindTID:           "tid",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// OrderPlaceholder in a return URL is replaced by the order number.
const OrderPlaceholder = "{order}"

// legacyOrderPlaceholder is still honored for return URLs written against
// the Portuguese integration guide.
const legacyOrderPlaceholder = "{pedido}"

// policy holds what differs between request variants: root tag, root id,
// the required business field and the fields injected on serialization.
type policy struct {
	root        string
	id          func(r *Request) string
	required    func(r *Request) error
	credentials bool
	fields      func(r *Request) ([]Field, error)
}

func fixedID(id string) func(*Request) string {
	return func(*Request) string { return id }
}

func requireTID(r *Request) error {
	if r.tid == "" {
		return &domain.ErrPrecondition{Operation: r.kind.String(), Message: "the transaction id (tid) must be set"}
	}
	return nil
}

func tidOnly(r *Request) ([]Field, error) {
	return []Field{{Tag: "tid", Value: r.tid, Placement: BeforeCredentials}}, nil
}

var policies = map[Kind]policy{
	KindAuthorization: {
		root:        "requisicao-autorizacao-portador",
		id:          fixedID("6"),
		required:    requireTID,
		credentials: true,
		fields: func(r *Request) ([]Field, error) {
			return []Field{
				{Tag: "tid", Value: r.tid, Placement: BeforeCredentials},
				{Tag: "capturar-automaticamente", Value: strconv.FormatBool(r.autoCapture), Placement: Trailing},
			}, nil
		},
	},
	KindTransaction: {
		root: "requisicao-transacao",
		id:   fixedID("1"),
		required: func(r *Request) error {
			if r.returnURL == "" {
				return &domain.ErrPrecondition{Operation: "transaction", Message: "the return URL must be set"}
			}
			return nil
		},
		fields: transactionFields,
	},
	KindCapture: {
		root:        "requisicao-captura",
		id:          fixedID("5"),
		required:    requireTID,
		credentials: true,
		fields: func(r *Request) ([]Field, error) {
			fields := []Field{{Tag: "tid", Value: r.tid, Placement: BeforeCredentials}}
			if r.captureAmount != nil {
				fields = append(fields, Field{Tag: "valor", Value: strconv.FormatInt(*r.captureAmount, 10), Placement: BeforeCredentials})
			}
			if r.annex != nil {
				fields = append(fields, Field{Tag: "anexo", Value: *r.annex, Placement: BeforeCredentials})
			}
			return fields, nil
		},
	},
	KindCancellation: {
		root:        "requisicao-cancelamento",
		id:          func(r *Request) string { return r.tid },
		required:    requireTID,
		credentials: true,
		fields:      tidOnly,
	},
	KindQuery: {
		root:        "requisicao-consulta",
		id:          fixedID("5"),
		required:    requireTID,
		credentials: true,
		fields:      tidOnly,
	},
	KindTID: {
		root:     "requisicao-tid",
		id:       fixedID("6"),
		required: func(*Request) error { return nil },
		fields:   func(*Request) ([]Field, error) { return nil, nil },
	},
}

func transactionFields(r *Request) ([]Field, error) {
	n, ok := r.doc.Find("dados-pedido")
	if !ok {
		return nil, &domain.ErrPrecondition{Operation: "transaction", Message: "the dados-pedido node must be added before serializing"}
	}

	returnURL := r.returnURL
	if order, ok := n.(*OrderData); ok {
		returnURL = strings.ReplaceAll(returnURL, OrderPlaceholder, order.Number())
		returnURL = strings.ReplaceAll(returnURL, legacyOrderPlaceholder, order.Number())
	}

	fields := []Field{
		{Tag: "url-retorno", Value: returnURL, Placement: Trailing},
		{Tag: "autorizar", Value: strconv.Itoa(int(r.authorizeMode)), Placement: Trailing},
		{Tag: "capturar", Value: strconv.FormatBool(r.autoCapture), Placement: Trailing},
	}
	if r.freeField != nil {
		fields = append(fields, Field{Tag: "campo-livre", Value: *r.freeField, Placement: Trailing})
	}
	return fields, nil
}
