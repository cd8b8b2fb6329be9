package observability_test

import (
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/infra/observability"
)

func TestCardFingerprinter(t *testing.T) {
	f := observability.NewCardFingerprinter("secret")

	a := f.Fingerprint("4012001038443335")
	b := f.Fingerprint("4012001038443335")
	if a != b {
		t.Fatalf("expected stable fingerprint, got %s and %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %q", a)
	}
	if strings.Contains(a, "3335") && strings.Contains(a, "401200") {
		t.Errorf("fingerprint leaks the pan: %s", a)
	}

	other := observability.NewCardFingerprinter("another-secret").Fingerprint("4012001038443335")
	if other == a {
		t.Error("expected the key to change the fingerprint")
	}
	if f.Fingerprint("") != "" {
		t.Error("expected empty fingerprint for empty pan")
	}

	long := observability.NewCardFingerprinter(strings.Repeat("k", 100))
	if long.Fingerprint("4012001038443335") == "" {
		t.Error("expected long keys to be accepted")
	}
}

func TestMaskXML(t *testing.T) {
	doc := `<requisicao-tid id="6"><dados-ec><numero>1006993069</numero><chave>25fbb99743</chave></dados-ec>` +
		`<dados-cartao><numero>4012001038443335</numero><validade>201805</validade><indicador>1</indicador>` +
		`<codigo-seguranca>973</codigo-seguranca></dados-cartao></requisicao-tid>`

	got := observability.MaskXML(doc)

	for _, leaked := range []string{"4012001038443335", "973<", "25fbb99743"} {
		if strings.Contains(got, leaked) {
			t.Errorf("masked document still contains %q: %s", leaked, got)
		}
	}
	if !strings.Contains(got, "<numero>401200******3335</numero>") {
		t.Errorf("expected masked pan, got %s", got)
	}
	if !strings.Contains(got, "<numero>1006993069</numero>") {
		t.Errorf("merchant number should be kept, got %s", got)
	}
}

func TestMaskPAN(t *testing.T) {
	if got := observability.MaskPAN("5453010000066167"); got != "545301******6167" {
		t.Errorf("unexpected mask %s", got)
	}
	if got := observability.MaskPAN("1234"); got != "****" {
		t.Errorf("unexpected mask %s", got)
	}
}

func TestGatewaySnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordCall("query", observability.OutcomeSuccess, 100*time.Millisecond)
	m.RecordCall("query", observability.OutcomeSuccess, 300*time.Millisecond)
	m.RecordCall("capture", observability.OutcomeProtocolError, 200*time.Millisecond)
	m.RecordCall("authorization", observability.OutcomeTransportError, 200*time.Millisecond)
	m.IncrCacheHit("query")
	m.IncrCacheMiss("query")
	m.IncrCacheMiss("query")
	m.IncrCacheMiss("query")

	snap := m.GetGatewaySnapshot()

	if snap.TotalCalls != 4 {
		t.Errorf("expected 4 calls, got %d", snap.TotalCalls)
	}
	if snap.SuccessfulCalls != 2 || snap.ProtocolErrors != 1 || snap.TransportErrors != 1 {
		t.Errorf("unexpected outcome split: %+v", snap)
	}
	if snap.ErrorRate != 0.5 {
		t.Errorf("expected error rate 0.5, got %f", snap.ErrorRate)
	}
	if snap.CallsByKind["query"] != 2 {
		t.Errorf("expected 2 query calls, got %d", snap.CallsByKind["query"])
	}
	if snap.AvgLatencyMs < 199 || snap.AvgLatencyMs > 201 {
		t.Errorf("expected ~200ms average latency, got %f", snap.AvgLatencyMs)
	}
	if snap.CacheHitRate != 0.25 {
		t.Errorf("expected cache hit rate 0.25, got %f", snap.CacheHitRate)
	}
}
