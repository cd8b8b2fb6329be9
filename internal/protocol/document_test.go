package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelope = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

func TestDocument_Bytes(t *testing.T) {
	doc := NewDocument("requisicao-tid", "6").
		Add(NewMerchantCredentials("1001734898", "key"))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, envelope+
		`<requisicao-tid id="6" versao="1.1.0" xmlns="http://ecommerce.cbmp.com.br">`+
		`<dados-ec><numero>1001734898</numero><chave>key</chave></dados-ec>`+
		`</requisicao-tid>`, string(out))
}

func TestDocument_InsertionOrderAndNesting(t *testing.T) {
	inner := NewDocument("lote", "2").Add(NewMerchantCredentials("9", ""))
	pm, err := NewPaymentMethod("1", 1, "visa")
	require.NoError(t, err)

	doc := NewDocument("raiz", "1")
	doc.Version = "1.2.0"
	doc.Add(pm).Add(inner)

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, envelope+
		`<raiz id="1" versao="1.2.0" xmlns="http://ecommerce.cbmp.com.br">`+
		`<forma-pagamento><bandeira>visa</bandeira><produto>1</produto><parcelas>1</parcelas></forma-pagamento>`+
		`<lote id="2" versao="1.1.0" xmlns="http://ecommerce.cbmp.com.br"><dados-ec><numero>9</numero></dados-ec></lote>`+
		`</raiz>`, string(out))
}

func TestDocument_FieldInjection(t *testing.T) {
	order, err := NewOrderData("1", 5, WithDateTime("2020-01-01"))
	require.NoError(t, err)

	doc := NewDocument("requisicao-captura", "5").
		Add(order).
		Add(NewMerchantCredentials("1", "k"))

	injected := doc.withFields([]Field{
		{Tag: "fim", Value: "x", Placement: Trailing},
		{Tag: "tid", Value: "abc", Placement: BeforeCredentials},
		{Tag: "valor", Value: "10", Placement: BeforeCredentials},
	})

	out, err := injected.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out),
		`</dados-pedido><tid>abc</tid><valor>10</valor><dados-ec><numero>1</numero><chave>k</chave></dados-ec><fim>x</fim></requisicao-captura>`)

	// The source document keeps no trace of the injected fields.
	plain, err := doc.Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(plain), "<tid>")
	assert.Len(t, doc.Nodes(), 2)
}

func TestDocument_EscapesValues(t *testing.T) {
	doc := NewDocument("requisicao-transacao", "1").withFields([]Field{
		{Tag: "url-retorno", Value: "https://loja.example/?a=1&b=<2>", Placement: Trailing},
	})

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<url-retorno>https://loja.example/?a=1&amp;b=&lt;2&gt;</url-retorno>")
}
