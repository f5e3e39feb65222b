// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/rendezvous/internal/config"
)

var testSecret = strings.Repeat("k", 32)

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager_ShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTManager(&config.SecurityConfig{JWTSecret: "short"}); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	token, err := m.GenerateToken("user-42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("Subject = %q, want user-42", claims.Subject)
	}
}

func TestJWTManager_GenerateRequiresUser(t *testing.T) {
	t.Parallel()

	if _, err := newTestManager(t).GenerateToken("", time.Hour); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, err := m.GenerateToken("user-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredCredentials) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredCredentials", err)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte(strings.Repeat("x", 32)),
			jwt.RegisteredClaims{Subject: "u", ExpiresAt: exp})},
		{"hs512", sign(jwt.SigningMethodHS512, []byte(testSecret),
			jwt.RegisteredClaims{Subject: "u", ExpiresAt: exp})},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
			jwt.RegisteredClaims{Subject: "u", ExpiresAt: exp})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte(testSecret),
			jwt.RegisteredClaims{Subject: "u"})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte(testSecret),
			jwt.RegisteredClaims{ExpiresAt: exp})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.ValidateToken(tt.token); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}
