package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/infra/observability"
	"github.com/boddenberg/cielo-gateway-go/internal/port"
	"github.com/boddenberg/cielo-gateway-go/internal/protocol"
)

var tracer = otel.Tracer("service/gateway")

const queryCache = "query"

// Settings are the merchant-wide values every request is built with.
type Settings struct {
	Endpoint        string
	AffiliationCode string
	AffiliationKey  string
	ReturnURL       string
	AutoCapture     bool
	ProtocolVersion string
}

// Outcome is what an operation hands back to the caller. ExchangeID is
// zero when the result came from the query cache.
type Outcome struct {
	ExchangeID  uuid.UUID
	Transaction *protocol.TransactionResult
	Cached      bool
}

// GatewayService builds requests from merchant settings and caller input,
// calls the network and records logs, metrics and traces for each call.
// It is safe for concurrent use: every call gets a fresh Request and a
// fresh transport.
type GatewayService struct {
	settings    Settings
	transports  port.TransportFactory
	cache       port.Cache[*protocol.TransactionResult]
	queries     singleflight.Group
	metrics     *observability.Metrics
	fingerprint *observability.CardFingerprinter
	logger      *zap.Logger
}

// NewGatewayService creates the gateway service with all dependencies injected.
func NewGatewayService(
	settings Settings,
	transports port.TransportFactory,
	cache port.Cache[*protocol.TransactionResult],
	metrics *observability.Metrics,
	fingerprint *observability.CardFingerprinter,
	logger *zap.Logger,
) *GatewayService {
	return &GatewayService{
		settings:    settings,
		transports:  transports,
		cache:       cache,
		metrics:     metrics,
		fingerprint: fingerprint,
		logger:      logger,
	}
}

// RequestTID obtains a tid for the direct-authorization flow.
func (s *GatewayService) RequestTID(ctx context.Context, in TIDInput) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "GatewayService.RequestTID")
	defer span.End()

	payment, err := in.Payment.node()
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(protocol.KindTID, payment)
	if err != nil {
		return nil, err
	}
	return s.call(ctx, req, "")
}

// CreateTransaction starts the combined authentication, authorization and
// capture flow. The result carries the URL the buyer must be sent to.
func (s *GatewayService) CreateTransaction(ctx context.Context, in TransactionInput) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "GatewayService.CreateTransaction")
	defer span.End()

	nodes, err := in.nodes()
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(protocol.KindTransaction, nodes...)
	if err != nil {
		return nil, err
	}

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = s.settings.ReturnURL
	}
	if returnURL != "" {
		if err := req.SetReturnURL(returnURL); err != nil {
			return nil, err
		}
	}
	if in.AuthorizeMode != nil {
		if err := req.SetAuthorizeMode(*in.AuthorizeMode); err != nil {
			return nil, err
		}
	}
	req.SetAutoCapture(s.autoCapture(in.AutoCapture))
	if in.FreeField != "" {
		req.SetFreeField(in.FreeField)
	}

	return s.call(ctx, req, cardNumber(in.Card))
}

// Authorize authorizes a tid obtained through RequestTID with the card data
// held by the merchant.
func (s *GatewayService) Authorize(ctx context.Context, in AuthorizationInput) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "GatewayService.Authorize")
	defer span.End()
	span.SetAttributes(attribute.String("cielo.tid", in.TID))

	nodes, err := in.nodes()
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(protocol.KindAuthorization, nodes...)
	if err != nil {
		return nil, err
	}
	req.SetTID(in.TID)
	req.SetAutoCapture(s.autoCapture(in.AutoCapture))

	defer s.cache.Delete(in.TID)
	return s.call(ctx, req, cardNumber(&in.Card))
}

// Capture captures an authorized transaction. A nil amount captures the
// full authorized value.
func (s *GatewayService) Capture(ctx context.Context, in CaptureInput) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "GatewayService.Capture")
	defer span.End()
	span.SetAttributes(attribute.String("cielo.tid", in.TID))

	req, err := s.newRequest(protocol.KindCapture)
	if err != nil {
		return nil, err
	}
	req.SetTID(in.TID)
	if in.AmountCents != nil {
		if err := req.SetCaptureAmount(*in.AmountCents); err != nil {
			return nil, err
		}
	}
	if in.Annex != "" {
		req.SetAnnex(in.Annex)
	}

	defer s.cache.Delete(in.TID)
	return s.call(ctx, req, "")
}

// Cancel cancels a transaction.
func (s *GatewayService) Cancel(ctx context.Context, tid string) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "GatewayService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("cielo.tid", tid))

	req, err := s.newRequest(protocol.KindCancellation)
	if err != nil {
		return nil, err
	}
	req.SetTID(tid)

	defer s.cache.Delete(tid)
	return s.call(ctx, req, "")
}

// Query returns the current state of a transaction. Results are cached
// briefly and concurrent queries for the same tid share one call.
func (s *GatewayService) Query(ctx context.Context, tid string) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "GatewayService.Query")
	defer span.End()
	span.SetAttributes(attribute.String("cielo.tid", tid))

	if tid == "" {
		return nil, &domain.ErrValidation{Field: "tid", Message: "tid is required"}
	}

	if cached, ok := s.cache.Get(tid); ok {
		s.metrics.IncrCacheHit(queryCache)
		return &Outcome{Transaction: cached, Cached: true}, nil
	}
	s.metrics.IncrCacheMiss(queryCache)

	// The flight is shared, so one caller giving up must not fail the others.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.queries.Do(tid, func() (any, error) {
		req, err := s.newRequest(protocol.KindQuery)
		if err != nil {
			return nil, err
		}
		req.SetTID(tid)

		out, err := s.call(flightCtx, req, "")
		if err != nil {
			return nil, err
		}
		s.cache.Set(tid, out.Transaction)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))

	return v.(*Outcome), nil
}

func (s *GatewayService) newRequest(kind protocol.Kind, nodes ...protocol.Node) (*protocol.Request, error) {
	all := make([]protocol.Node, 0, len(nodes)+1)
	all = append(all, protocol.NewMerchantCredentials(s.settings.AffiliationCode, s.settings.AffiliationKey))
	all = append(all, nodes...)

	req, err := protocol.NewRequest(kind, all...)
	if err != nil {
		return nil, err
	}
	req.SetVersion(s.settings.ProtocolVersion)
	return req, nil
}

func (s *GatewayService) autoCapture(override *bool) bool {
	if override != nil {
		return *override
	}
	return s.settings.AutoCapture
}

// call performs the round trip and records it.
func (s *GatewayService) call(ctx context.Context, req *protocol.Request, pan string) (*Outcome, error) {
	kind := req.Kind().String()
	ctx, span := tracer.Start(ctx, "cielo."+kind)
	defer span.End()

	start := time.Now()
	ex, err := req.Call(ctx, s.transports(), s.settings.Endpoint)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("kind", kind),
		zap.Duration("duration", elapsed),
	}
	if tid := req.TID(); tid != "" {
		fields = append(fields, zap.String("tid", tid))
	}
	if pan != "" {
		fields = append(fields, s.fingerprint.Field(pan))
	}
	if ex != nil {
		fields = append(fields, zap.String("exchange_id", ex.ID.String()))
		span.SetAttributes(attribute.String("cielo.exchange_id", ex.ID.String()))
		if ce := s.logger.Check(zap.DebugLevel, "cielo exchange"); ce != nil {
			ce.Write(append(fields,
				zap.String("request_xml", observability.MaskXML(ex.Request)),
				zap.String("response_xml", ex.Response),
			)...)
		}
	}

	outcome := classify(err)
	s.metrics.RecordCall(kind, outcome, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		fields = append(fields, zap.String("outcome", outcome), zap.Error(err))

		var pe *domain.ErrProtocol
		switch {
		case errors.As(err, &pe):
			s.metrics.IncrProtocolError(pe.Code)
			s.logger.Warn("cielo returned an error document", append(fields, zap.String("protocol_code", pe.Code))...)
		case outcome == observability.OutcomeTransportError:
			s.metrics.IncrExternalError("cielo")
			s.logger.Error("cielo call failed", fields...)
		default:
			s.logger.Warn("cielo call rejected", fields...)
		}
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	res := ex.Result
	fields = append(fields, zap.Int("status", res.Status))
	if res.TID != "" {
		span.SetAttributes(attribute.String("cielo.tid", res.TID))
	}
	s.logger.Info("cielo call", fields...)

	return &Outcome{ExchangeID: ex.ID, Transaction: res}, nil
}

func classify(err error) string {
	if err == nil {
		return observability.OutcomeSuccess
	}

	var (
		pe  *domain.ErrProtocol
		ext *domain.ErrExternalService
		ud  *domain.ErrUnexpectedDocument
	)
	switch {
	case errors.As(err, &pe):
		return observability.OutcomeProtocolError
	case errors.As(err, &ext), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return observability.OutcomeTransportError
	case errors.As(err, &ud):
		return observability.OutcomeUnexpected
	}
	return observability.OutcomeInvalid
}
