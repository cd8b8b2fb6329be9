package protocol

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/port"
)

// State is the lifecycle position of a Request.
type State int

const (
	StateAssembled State = iota
	StateFieldsSet
	StateSerialized
	StateCalled
)

func (s State) String() string {
	switch s {
	case StateAssembled:
		return "assembled"
	case StateFieldsSet:
		return "fields_set"
	case StateSerialized:
		return "serialized"
	case StateCalled:
		return "called"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Request is a single message sent to the network. It is built once,
// called once and then discarded.
type Request struct {
	kind  Kind
	doc   *Document
	state State

	tid           string
	returnURL     string
	autoCapture   bool
	authorizeMode domain.AuthorizeMode
	freeField     *string
	captureAmount *int64
	annex         *string
}

// NewRequest creates a request of the given kind holding nodes.
func NewRequest(kind Kind, nodes ...Node) (*Request, error) {
	p, ok := policies[kind]
	if !ok {
		return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown request kind %d", kind)}
	}

	r := &Request{
		kind:          kind,
		doc:           NewDocument(p.root, ""),
		authorizeMode: domain.DefaultAuthorizeMode,
	}
	for _, n := range nodes {
		r.doc.Add(n)
	}
	return r, nil
}

func (r *Request) Kind() Kind      { return r.kind }
func (r *Request) State() State    { return r.state }
func (r *Request) TID() string     { return r.tid }
func (r *Request) Version() string { return r.doc.Version }

// Add appends a node to the request body.
func (r *Request) Add(n Node) *Request {
	r.doc.Add(n)
	return r
}

// SetVersion overrides the protocol version sent in the versao attribute.
func (r *Request) SetVersion(v string) {
	if v != "" {
		r.doc.Version = v
	}
}

func (r *Request) fieldsSet() {
	if r.state == StateAssembled {
		r.state = StateFieldsSet
	}
}

// SetTID sets the transaction identifier the request operates on.
func (r *Request) SetTID(tid string) {
	r.tid = tid
	r.fieldsSet()
}

// SetReturnURL sets the page the buyer returns to after authentication.
// OrderPlaceholder is replaced by the order number on serialization.
func (r *Request) SetReturnURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ErrValidation{Field: "url-retorno", Message: fmt.Sprintf("invalid return URL %q", raw)}
	}
	r.returnURL = raw
	r.fieldsSet()
	return nil
}

// SetAutoCapture chooses whether an authorized transaction is captured
// right away. Defaults to false.
func (r *Request) SetAutoCapture(capture bool) {
	r.autoCapture = capture
}

// SetAuthorizeMode sets the autorizar indicator of the combined flow.
func (r *Request) SetAuthorizeMode(mode int) error {
	m := domain.AuthorizeMode(mode)
	if !m.Valid() {
		return &domain.ErrValidation{Field: "autorizar", Message: fmt.Sprintf("authorize mode must be 0..3, got %d", mode)}
	}
	r.authorizeMode = m
	return nil
}

// SetFreeField sets campo-livre, echoed back when the buyer returns.
func (r *Request) SetFreeField(v string) {
	r.freeField = &v
}

// SetCaptureAmount captures less than the authorized amount. cents is in
// minor units. Without it the full authorized amount is captured.
func (r *Request) SetCaptureAmount(cents int64) error {
	if cents < 0 {
		return &domain.ErrValidation{Field: "valor", Message: "capture amount must not be negative"}
	}
	r.captureAmount = &cents
	return nil
}

// SetAnnex attaches additional capture details.
func (r *Request) SetAnnex(v string) {
	r.annex = &v
}

// Serialize checks the required fields and renders the request document.
func (r *Request) Serialize() ([]byte, error) {
	p := policies[r.kind]

	if err := p.required(r); err != nil {
		return nil, err
	}
	if p.credentials {
		if _, ok := r.doc.Find(credentialsNode); !ok {
			return nil, &domain.ErrPrecondition{Operation: r.kind.String(), Message: "the dados-ec node must be added before serializing"}
		}
	}

	fields, err := p.fields(r)
	if err != nil {
		return nil, err
	}

	doc := r.doc.withFields(fields)
	doc.ID = p.id(r)

	out, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serializing %s request: %w", r.kind, err)
	}
	if r.state != StateCalled {
		r.state = StateSerialized
	}
	return out, nil
}

// Exchange is the outcome of one round trip: the raw texts plus the parsed
// result. It is returned even when the response carried an error document.
type Exchange struct {
	ID       uuid.UUID
	Kind     Kind
	Request  string
	Response string
	Result   *TransactionResult
	Duration time.Duration
}

// Call serializes the request, posts it through t and parses the answer.
// The transport is always closed before Call returns.
func (r *Request) Call(ctx context.Context, t port.Transport, endpoint string) (ex *Exchange, err error) {
	if r.state == StateCalled {
		return nil, &domain.ErrPrecondition{Operation: r.kind.String(), Message: "request already called"}
	}

	body, err := r.Serialize()
	if err != nil {
		return nil, err
	}
	r.state = StateCalled

	ex = &Exchange{ID: uuid.New(), Kind: r.kind, Request: string(body)}

	if err := t.Open(endpoint); err != nil {
		return ex, fmt.Errorf("opening transport: %w", err)
	}
	defer func() {
		if cerr := t.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing transport: %w", cerr)
		}
	}()

	start := time.Now()
	raw, err := t.Execute(ctx, url.Values{"mensagem": {ex.Request}}, http.MethodPost)
	ex.Duration = time.Since(start)
	if err != nil {
		return ex, err
	}
	ex.Response = raw

	ex.Result, err = ParseTransaction(raw)
	return ex, err
}
