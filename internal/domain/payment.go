package domain

// ============================================================
// Card brands & payment products
// ============================================================

// Brand is the card brand (bandeira) understood by the network.
type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
)

// Valid reports whether b is one of the supported brands.
func (b Brand) Valid() bool {
	return b == BrandVisa || b == BrandMastercard
}

// Product is the payment product code (produto) sent on the wire.
type Product string

const (
	ProductOneTimePayment            Product = "1" // crédito à vista
	ProductInstallmentsByMerchant    Product = "2" // parcelado loja
	ProductInstallmentsByCardIssuers Product = "3" // parcelado administradora
	ProductDebit                     Product = "A" // débito
)

// Valid reports whether p is a recognized product.
func (p Product) Valid() bool {
	switch p {
	case ProductOneTimePayment, ProductInstallmentsByMerchant, ProductInstallmentsByCardIssuers, ProductDebit:
		return true
	}
	return false
}

// SingleInstallment reports whether the product only accepts one installment.
func (p Product) SingleInstallment() bool {
	return p == ProductOneTimePayment || p == ProductDebit
}

// SecurityCodeIndicator tells the network whether the card security code
// travels with the request (indicador).
type SecurityCodeIndicator int

const (
	SecurityCodeNotInformed SecurityCodeIndicator = 0
	SecurityCodeInformed    SecurityCodeIndicator = 1
	SecurityCodeIllegible   SecurityCodeIndicator = 2
	SecurityCodeAbsent      SecurityCodeIndicator = 9
)

// Valid reports whether i is a recognized indicator value.
func (i SecurityCodeIndicator) Valid() bool {
	switch i {
	case SecurityCodeNotInformed, SecurityCodeInformed, SecurityCodeIllegible, SecurityCodeAbsent:
		return true
	}
	return false
}

// AuthorizeMode controls when the network authorizes a transaction created
// through the combined flow (autorizar).
type AuthorizeMode int

const (
	AuthorizeOnlyAuthenticate      AuthorizeMode = 0
	AuthorizeIfAuthenticated       AuthorizeMode = 1
	AuthorizeAuthenticatedOrNot    AuthorizeMode = 2
	AuthorizeWithoutAuthentication AuthorizeMode = 3
)

// DefaultAuthorizeMode is used when the caller does not choose one.
const DefaultAuthorizeMode = AuthorizeAuthenticatedOrNot

// Valid reports whether m is within 0..3.
func (m AuthorizeMode) Valid() bool {
	return m >= AuthorizeOnlyAuthenticate && m <= AuthorizeWithoutAuthentication
}
