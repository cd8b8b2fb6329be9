package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/cielo-gateway-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Gateway is the payment surface the HTTP API exposes.
type Gateway interface {
	RequestTID(ctx context.Context, in service.TIDInput) (*service.Outcome, error)
	CreateTransaction(ctx context.Context, in service.TransactionInput) (*service.Outcome, error)
	Authorize(ctx context.Context, in service.AuthorizationInput) (*service.Outcome, error)
	Capture(ctx context.Context, in service.CaptureInput) (*service.Outcome, error)
	Cancel(ctx context.Context, tid string) (*service.Outcome, error)
	Query(ctx context.Context, tid string) (*service.Outcome, error)
}

var _ Gateway = (*service.GatewayService)(nil)

// ============================================================
// TID
// POST /v1/tids
// ============================================================

func requestTIDHandler(gw Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tids")
		defer span.End()

		var body tidBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := gw.RequestTID(ctx, service.TIDInput{Payment: body.Payment.input()})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, tidResponse{
			ExchangeID: out.ExchangeID.String(),
			TID:        out.Transaction.TID,
		})
	}
}

// ============================================================
// Transactions
// ============================================================

func createTransactionHandler(gw Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var body transactionBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("order.number", body.Order.Number))

		logger.Debug("create transaction",
			zap.String("order", body.Order.Number),
			zap.String("card", maskedCard(body.Card)),
			zap.String("client", ClientIDFromContext(ctx)),
		)

		out, err := gw.CreateTransaction(ctx, service.TransactionInput{
			Order:         body.Order.input(),
			Payment:       body.Payment.input(),
			Card:          body.Card.input(),
			ReturnURL:     body.ReturnURL,
			AuthorizeMode: body.AuthorizeMode,
			AutoCapture:   body.AutoCapture,
			FreeField:     body.FreeField,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, newTransactionResponse(out))
	}
}

func authorizeHandler(gw Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{tid}/authorization")
		defer span.End()

		tid := chi.URLParam(r, "tid")
		span.SetAttributes(attribute.String("cielo.tid", tid))

		var body authorizationBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := gw.Authorize(ctx, service.AuthorizationInput{
			TID:         tid,
			Card:        *body.Card.input(),
			Order:       body.Order.input(),
			Payment:     body.Payment.input(),
			AutoCapture: body.AutoCapture,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, newTransactionResponse(out))
	}
}

func captureHandler(gw Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{tid}/capture")
		defer span.End()

		tid := chi.URLParam(r, "tid")
		span.SetAttributes(attribute.String("cielo.tid", tid))

		// An empty body captures the full authorized amount.
		var body captureBody
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		out, err := gw.Capture(ctx, service.CaptureInput{TID: tid, AmountCents: body.Amount, Annex: body.Annex})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, newTransactionResponse(out))
	}
}

func cancelHandler(gw Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{tid}/cancellation")
		defer span.End()

		tid := chi.URLParam(r, "tid")
		span.SetAttributes(attribute.String("cielo.tid", tid))

		out, err := gw.Cancel(ctx, tid)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, newTransactionResponse(out))
	}
}

func queryHandler(gw Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{tid}")
		defer span.End()

		tid := chi.URLParam(r, "tid")
		span.SetAttributes(attribute.String("cielo.tid", tid))

		out, err := gw.Query(ctx, tid)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, newTransactionResponse(out))
	}
}
