package protocol_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const errorResponse = `<?xml version="1.0" encoding="UTF-8"?>
<erro xmlns="http://ecommerce.cbmp.com.br">
<codigo>032</codigo>
<mensagem>Valor de captura inválido</mensagem>
</erro>`

const transactionResponse = `<?xml version="1.0" encoding="ISO-8859-1"?>
<transacao id="1" versao="1.0.0" xmlns="http://ecommerce.cbmp.com.br">
<tid>100173489800B2F81001</tid>
<dados-pedido>
<numero>123</numero>
<valor>100</valor>
<moeda>986</moeda>
<data-hora>2010-08-09T11:21:29.305-03:00</data-hora>
<idioma>PT</idioma>
</dados-pedido>
<forma-pagamento>
<produto>1</produto>
<parcelas>1</parcelas>
</forma-pagamento>
<status>0</status>
<url-autenticacao>https://qasecommerce.cielo.com.br/web/index.cbmp?id=bf9b310513668bdf92797518eb249c03</url-autenticacao>
</transacao>`

const capturedResponse = `<?xml version="1.0" encoding="UTF-8"?>
<transacao id="5" versao="1.1.0" xmlns="http://ecommerce.cbmp.com.br">
<tid>10069930690009F2001A</tid>
<pan>IqVz7P9zaIgTYdU41HaW/OB/d7Idwttqwb2vaTt8MT0=</pan>
<dados-pedido><numero>178148599</numero><valor>10050</valor><moeda>986</moeda><data-hora>2011-12-07T11:43:37.157-02:00</data-hora><idioma>PT</idioma></dados-pedido>
<forma-pagamento><bandeira>visa</bandeira><produto>2</produto><parcelas>3</parcelas></forma-pagamento>
<status>6</status>
<autenticacao><codigo>6</codigo><mensagem>Transacao sem autenticacao</mensagem><data-hora>2011-12-07T11:43:37.170-02:00</data-hora><valor>10050</valor><eci>7</eci></autenticacao>
<autorizacao><codigo>6</codigo><mensagem>Transação autorizada</mensagem><data-hora>2011-12-07T11:43:37.183-02:00</data-hora><valor>10050</valor><lr>00</lr><arp>123456</arp></autorizacao>
<captura><codigo>6</codigo><mensagem>Transacao capturada com sucesso</mensagem><data-hora>2011-12-08T11:43:37.193-02:00</data-hora><valor>10050</valor></captura>
</transacao>`

func TestParseTransaction_ErrorDocument(t *testing.T) {
	res, err := protocol.ParseTransaction(errorResponse)
	assert.Nil(t, res)

	var pe *domain.ErrProtocol
	require.True(t, errors.As(err, &pe), "expected *domain.ErrProtocol, got %v", err)
	assert.Equal(t, "032", pe.Code)
	assert.Equal(t, "Valor de captura inválido", pe.Message)
}

func TestParseTransaction_Latin1ErrorDocument(t *testing.T) {
	raw := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<erro xmlns=\"http://ecommerce.cbmp.com.br\"><codigo>032</codigo><mensagem>Valor de captura inv\xe1lido</mensagem></erro>"

	_, err := protocol.ParseTransaction(raw)

	var pe *domain.ErrProtocol
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Valor de captura inválido", pe.Message)
}

func TestParseTransaction_ExampleDocument(t *testing.T) {
	res, err := protocol.ParseTransaction(transactionResponse)
	require.NoError(t, err)

	assert.Equal(t, "100173489800B2F81001", res.TID)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "https://qasecommerce.cielo.com.br/web/index.cbmp?id=bf9b310513668bdf92797518eb249c03", res.AuthenticationURL)
	assert.Empty(t, res.PAN)

	require.NotNil(t, res.Order)
	assert.Equal(t, "123", res.Order.Number())
	assert.Equal(t, int64(100), res.Order.Value())
	assert.Equal(t, 986, res.Order.Currency())
	assert.Equal(t, "2010-08-09T11:21:29", res.Order.DateTime())
	assert.Equal(t, "PT", res.Order.Language())

	require.NotNil(t, res.Payment)
	assert.Equal(t, domain.ProductOneTimePayment, res.Payment.Product())
	assert.Equal(t, 1, res.Payment.Installments())
	assert.Empty(t, res.Payment.Brand())

	assert.Nil(t, res.Authentication)
	assert.Nil(t, res.Authorization)
	assert.Nil(t, res.Capture)
	assert.Nil(t, res.Cancellation)

	status, err := res.StatusCode()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, status)
}

func TestParseTransaction_Stages(t *testing.T) {
	res, err := protocol.ParseTransaction(capturedResponse)
	require.NoError(t, err)

	assert.Equal(t, "IqVz7P9zaIgTYdU41HaW/OB/d7Idwttqwb2vaTt8MT0=", res.PAN)
	assert.Equal(t, 6, res.Status)
	assert.Empty(t, res.AuthenticationURL)
	assert.Equal(t, domain.BrandVisa, res.Payment.Brand())
	assert.Equal(t, 3, res.Payment.Installments())

	auth := res.Authentication
	require.NotNil(t, auth)
	assert.Equal(t, protocol.StageAuthentication, auth.Stage)
	assert.Equal(t, "6", auth.Code)
	assert.Equal(t, "2011-12-07T11:43:37", auth.DateTime)
	require.NotNil(t, auth.ECI)
	assert.Equal(t, 7, *auth.ECI)

	ind, err := auth.Indicator()
	require.NoError(t, err)
	assert.True(t, ind.Has(domain.Unauthenticated))
	assert.True(t, ind.Has(domain.AffiliatedDidNotSendAuthentication))

	authz := res.Authorization
	require.NotNil(t, authz)
	assert.Equal(t, "00", authz.ReturnCode)
	assert.Equal(t, "123456", authz.ProofCode)
	assert.Equal(t, "Transação autorizada", authz.Message)
	assert.Nil(t, authz.ECI)

	capture := res.Capture
	require.NotNil(t, capture)
	assert.Equal(t, int64(10050), capture.ValueCents)
	assert.True(t, capture.Value().Equal(decimal.RequireFromString("100.50")))
	assert.Equal(t, "100.50", capture.Value().StringFixed(2))

	assert.Nil(t, res.Cancellation)
}

func TestParseTransaction_FirstCancellationWins(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<transacao id="9" versao="1.1.0" xmlns="http://ecommerce.cbmp.com.br">
<tid>10069930690009F2001A</tid>
<status>9</status>
<cancelamentos>
<cancelamento><codigo>9</codigo><mensagem>Transacao cancelada</mensagem><data-hora>2011-12-09T10:00:00.000-02:00</data-hora><valor>100</valor></cancelamento>
<cancelamento><codigo>9</codigo><mensagem>Transacao cancelada</mensagem><data-hora>2011-12-10T10:00:00.000-02:00</data-hora><valor>200</valor></cancelamento>
</cancelamentos>
</transacao>`

	res, err := protocol.ParseTransaction(doc)
	require.NoError(t, err)

	require.NotNil(t, res.Cancellation)
	assert.Equal(t, protocol.StageCancellation, res.Cancellation.Stage)
	assert.Equal(t, int64(100), res.Cancellation.ValueCents)
	assert.Equal(t, "2011-12-09T10:00:00", res.Cancellation.DateTime)
}

func TestStageResult_Value(t *testing.T) {
	for cents, want := range map[int64]string{10050: "100.5", 1: "0.01", 0: "0", 199999: "1999.99"} {
		s := &protocol.StageResult{ValueCents: cents}
		assert.True(t, s.Value().Equal(decimal.RequireFromString(want)), "cents %d", cents)
		assert.Equal(t, cents, s.ValueCents)
	}
}

func TestStageResult_IndicatorWithoutECI(t *testing.T) {
	_, err := (&protocol.StageResult{Stage: protocol.StageAuthentication}).Indicator()

	var unknown *domain.ErrUnknownMapping
	require.True(t, errors.As(err, &unknown))
}

func TestParseTransaction_TIDDocument(t *testing.T) {
	res, err := protocol.ParseTransaction(tidResponse)
	require.NoError(t, err)
	assert.Equal(t, "10069930690009F2001A", res.TID)
	assert.Equal(t, -1, res.Status)
	assert.Nil(t, res.Order)

	status, err := res.StatusCode()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnknown, status)
}

func TestParseTransaction_MissingChildren(t *testing.T) {
	raw := `<transacao xmlns="http://ecommerce.cbmp.com.br"><tid>T</tid><autorizacao><codigo>5</codigo></autorizacao><cancelamentos><cancelamento><codigo>9</codigo><valor>500</valor></cancelamento></cancelamentos></transacao>`

	res, err := protocol.ParseTransaction(raw)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Status)

	require.NotNil(t, res.Authorization)
	assert.Equal(t, "5", res.Authorization.Code)
	assert.Empty(t, res.Authorization.Message)
	assert.Empty(t, res.Authorization.ReturnCode)
	assert.Zero(t, res.Authorization.ValueCents)

	require.NotNil(t, res.Cancellation)
	assert.Equal(t, protocol.StageCancellation, res.Cancellation.Stage)
	assert.Equal(t, int64(500), res.Cancellation.ValueCents)
}

func TestDecode_Union(t *testing.T) {
	resp, err := protocol.Decode(errorResponse)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseError, resp.Kind)
	assert.Equal(t, "032", resp.Err.Code)

	resp, err = protocol.Decode(tidResponse)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseTID, resp.Kind)

	resp, err = protocol.Decode(transactionResponse)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseTransaction, resp.Kind)
	assert.Equal(t, "100173489800B2F81001", resp.Transaction.TID)
}

func TestDecode_UnexpectedDocument(t *testing.T) {
	for name, raw := range map[string]string{
		"unknown root": `<?xml version="1.0"?><resposta><tid>1</tid></resposta>`,
		"empty":        "",
		"not xml":      "Service Unavailable",
		"truncated":    `<transacao><tid>1</tid>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := protocol.ParseTransaction(raw)

			var ud *domain.ErrUnexpectedDocument
			require.True(t, errors.As(err, &ud), "got %v", err)
		})
	}
}
