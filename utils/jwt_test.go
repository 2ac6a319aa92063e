package utils

import (
	"testing"
	"time"

	"costmgt/config"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	config.JWTKey = []byte("test-secret")
	config.JWTExpiration = time.Hour

	token, err := GenerateJWT("64f000000000000000000a01", "Pat Doe", "finance_manager", "64f000000000000000000f0f")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}
	if claims.UserID != "64f000000000000000000a01" {
		t.Errorf("unexpected userID: %s", claims.UserID)
	}
	if claims.Role != "finance_manager" {
		t.Errorf("unexpected role: %s", claims.Role)
	}
	if claims.OrganizationID != "64f000000000000000000f0f" {
		t.Errorf("unexpected org id: %s", claims.OrganizationID)
	}
}

func TestValidateJWTRejectsTampered(t *testing.T) {
	config.JWTKey = []byte("test-secret")
	config.JWTExpiration = time.Hour

	token, err := GenerateJWT("u", "n", "viewer", "o")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ValidateJWT(token + "x"); err == nil {
		t.Error("tampered token must not validate")
	}

	config.JWTKey = []byte("another-secret")
	if _, err := ValidateJWT(token); err == nil {
		t.Error("token signed with a different key must not validate")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("S3cret!pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPasswordHash("S3cret!pass", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
