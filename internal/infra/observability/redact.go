package observability

import (
	"encoding/hex"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// CardFingerprinter derives a stable, keyed fingerprint of a card number so
// that logs can correlate calls without carrying the PAN.
type CardFingerprinter struct {
	key []byte
}

// NewCardFingerprinter builds a fingerprinter. Keys longer than 64 bytes
// are reduced with BLAKE2b first.
func NewCardFingerprinter(key string) *CardFingerprinter {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum512(k)
		k = sum[:]
	}
	return &CardFingerprinter{key: k}
}

// Fingerprint returns 16 hex chars of the keyed BLAKE2b-256 digest of pan,
// or "" for an empty pan.
func (f *CardFingerprinter) Fingerprint(pan string) string {
	if pan == "" {
		return ""
	}
	h, err := blake2b.New256(f.key)
	if err != nil {
		return ""
	}
	h.Write([]byte(pan))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Field is the zap field carrying the card fingerprint.
func (f *CardFingerprinter) Field(pan string) zap.Field {
	return zap.String("card_fp", f.Fingerprint(pan))
}

// MaskPAN keeps the first six and last four digits.
func MaskPAN(pan string) string {
	if len(pan) <= 10 {
		return strings.Repeat("*", len(pan))
	}
	return pan[:6] + strings.Repeat("*", len(pan)-10) + pan[len(pan)-4:]
}

var (
	cardNumberRe   = regexp.MustCompile(`(<dados-cartao>\s*<numero>)([^<]*)(</numero>)`)
	securityCodeRe = regexp.MustCompile(`(<codigo-seguranca>)[^<]*(</codigo-seguranca>)`)
	merchantKeyRe  = regexp.MustCompile(`(<chave>)[^<]*(</chave>)`)
)

// MaskXML hides the card number, security code and merchant key of a
// request document before it is logged.
func MaskXML(doc string) string {
	doc = cardNumberRe.ReplaceAllStringFunc(doc, func(m string) string {
		parts := cardNumberRe.FindStringSubmatch(m)
		return parts[1] + MaskPAN(parts[2]) + parts[3]
	})
	doc = securityCodeRe.ReplaceAllString(doc, "${1}***${2}")
	doc = merchantKeyRe.ReplaceAllString(doc, "${1}***${2}")
	return doc
}
