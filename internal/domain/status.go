package domain

import "strconv"

// TransactionStatus is the lifecycle status reported in <status>.
type TransactionStatus int

const (
	StatusUnknown         TransactionStatus = -1 // <status> absent
	StatusCreated         TransactionStatus = 0
	StatusOngoing         TransactionStatus = 1
	StatusAuthenticated   TransactionStatus = 2
	StatusUnauthenticated TransactionStatus = 3
	StatusAuthorized      TransactionStatus = 4
	StatusUnauthorized    TransactionStatus = 5
	StatusCaptured        TransactionStatus = 6
	StatusNotCaptured     TransactionStatus = 8
	StatusCancelled       TransactionStatus = 9
	StatusAuthenticating  TransactionStatus = 10
)

var statusNames = map[TransactionStatus]string{
	StatusUnknown:         "unknown",
	StatusCreated:         "created",
	StatusOngoing:         "ongoing",
	StatusAuthenticated:   "authenticated",
	StatusUnauthenticated: "unauthenticated",
	StatusAuthorized:      "authorized",
	StatusUnauthorized:    "unauthorized",
	StatusCaptured:        "captured",
	StatusNotCaptured:     "not_captured",
	StatusCancelled:       "cancelled",
	StatusAuthenticating:  "authenticating",
}

// ParseStatus interprets a numeric status code. -1 is accepted and means
// the response carried no status.
func ParseStatus(code int) (TransactionStatus, error) {
	s := TransactionStatus(code)
	if _, ok := statusNames[s]; !ok {
		return StatusUnknown, &ErrUnknownMapping{Kind: "status", Value: strconv.Itoa(code)}
	}
	return s, nil
}

func (s TransactionStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// IsFinal reports whether no further lifecycle step can follow.
func (s TransactionStatus) IsFinal() bool {
	switch s {
	case StatusUnauthenticated, StatusUnauthorized, StatusCaptured, StatusNotCaptured, StatusCancelled:
		return true
	}
	return false
}
