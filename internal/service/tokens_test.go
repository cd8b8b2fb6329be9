package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
	"github.com/boddenberg/cielo-gateway-go/internal/service"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := service.NewTokenService("s3cr3t", time.Hour)

	token, err := svc.Issue("store-42", "payments")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Sub != "store-42" || claims.Scope != "payments" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := service.NewTokenService("s3cr3t", time.Hour)
	other, _ := service.NewTokenService("another", time.Hour).Issue("store-42", "")
	expired, _ := service.NewTokenService("s3cr3t", -time.Minute).Issue("store-42", "")

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": other,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(token)
			var ue *domain.ErrUnauthorized
			if !errors.As(err, &ue) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestTokenService_Disabled(t *testing.T) {
	svc := service.NewTokenService("", time.Hour)

	if svc.Enabled() {
		t.Fatal("expected disabled service")
	}
	if _, err := svc.Issue("store-42", ""); err == nil {
		t.Error("expected issue to fail without a secret")
	}
}
