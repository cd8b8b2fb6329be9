package domain

import (
	"strconv"
	"strings"
)

// Indicator is the abstract security indicator behind the brand dependent
// ECI codes. Values are bit flags: CodeToIndicator may return two of them
// combined.
type Indicator int

const (
	Authenticated                      Indicator = 1
	WithoutAuthentication              Indicator = 2
	Unauthenticated                    Indicator = 4
	AffiliatedDidNotSendAuthentication Indicator = 8
)

var indicatorNames = []struct {
	flag Indicator
	name string
}{
	{Authenticated, "authenticated"},
	{WithoutAuthentication, "without_authentication"},
	{Unauthenticated, "unauthenticated"},
	{AffiliatedDidNotSendAuthentication, "affiliated_did_not_send_authentication"},
}

// Has reports whether flag is set in i.
func (i Indicator) Has(flag Indicator) bool {
	return flag != 0 && i&flag == flag
}

func (i Indicator) String() string {
	var parts []string
	for _, n := range indicatorNames {
		if i.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "indicator(" + strconv.Itoa(int(i)) + ")"
	}
	return strings.Join(parts, "|")
}

// IndicatorToCode translates an indicator into the ECI code the given
// brand expects on the wire.
func IndicatorToCode(ind Indicator, brand Brand) (int, error) {
	if !brand.Valid() {
		return 0, &ErrUnknownMapping{Kind: "brand", Value: string(brand)}
	}
	visa := brand == BrandVisa

	switch ind {
	case Authenticated:
		return pick(visa, 5, 2), nil
	case WithoutAuthentication:
		return pick(visa, 6, 1), nil
	case Unauthenticated, AffiliatedDidNotSendAuthentication:
		return pick(visa, 7, 0), nil
	}
	return 0, &ErrUnknownMapping{Kind: "indicator", Value: strconv.Itoa(int(ind))}
}

// CodeToIndicator interprets an ECI code returned by the network.
// Codes 0 and 7 map to Unauthenticated and AffiliatedDidNotSendAuthentication
// at the same time: the network does not distinguish them.
func CodeToIndicator(code int) (Indicator, error) {
	switch code {
	case 2, 5:
		return Authenticated, nil
	case 1, 6:
		return WithoutAuthentication, nil
	case 0, 7:
		return Unauthenticated | AffiliatedDidNotSendAuthentication, nil
	}
	return 0, &ErrUnknownMapping{Kind: "eci", Value: strconv.Itoa(code)}
}

func pick(visa bool, visaCode, mastercardCode int) int {
	if visa {
		return visaCode
	}
	return mastercardCode
}
