package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(testSecret, userID, "Alice", "editor", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Name != "Alice" {
		t.Errorf("Name = %q, want %q", claims.Name, "Alice")
	}
	if claims.Role != "editor" {
		t.Errorf("Role = %q, want %q", claims.Role, "editor")
	}
	if claims.Issuer != "workspace-core" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "workspace-core")
	}
}

func TestParseTokenRejections(t *testing.T) {
	userID := uuid.New()

	expired, err := GenerateToken(testSecret, userID, "Alice", "editor", -time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	wrongSecret, err := GenerateToken("other-secret", userID, "Alice", "editor", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	missingUserID := signRaw(t, Claims{
		Role: "editor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	missingRole := signRaw(t, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: userID, Role: "owner"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJmb28i"},
		{"expired", expired},
		{"wrong signature", wrongSecret},
		{"none algorithm", noneAlg},
		{"missing user_id claim", missingUserID},
		{"missing role claim", missingRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(testSecret, tt.token)
			if err == nil {
				t.Fatalf("ParseToken(%q) accepted, want rejection", tt.name)
			}
			if claims != nil {
				t.Errorf("ParseToken(%q) returned claims alongside error", tt.name)
			}
		})
	}
}

func TestGenerateTokenDefaultExpiration(t *testing.T) {
	token, err := GenerateToken(testSecret, uuid.New(), "Alice", "viewer", 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("default ttl = %v, want ~24h", ttl)
	}
}

func signRaw(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}
