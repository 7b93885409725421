package util

import (
	"campus_share_backend/internal/model"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m, err := NewTokenManager("unit-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	user := &model.User{Username: "alice"}
	user.ID = 7

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m, _ := NewTokenManager("unit-test-secret", time.Hour)
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue(&model.User{Username: "alice", BaseModel: model.BaseModel{ID: 1}})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	m, _ := NewTokenManager("unit-test-secret", time.Hour)
	other, _ := NewTokenManager("another-secret", time.Hour)

	foreign, _ := other.Issue(&model.User{Username: "mallory", BaseModel: model.BaseModel{ID: 2}})

	// alg=none 的令牌必须被拒绝
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 3}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", foreign},
		{"unsigned", unsigned},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
