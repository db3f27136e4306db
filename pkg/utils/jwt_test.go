package utils

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetSecret("test-secret")
	id := primitive.NewObjectID()

	token, err := GenerateToken(id, "a@b.c", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != id.Hex() || claims.Email != "a@b.c" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	SetSecret("test-secret")
	expired, _ := GenerateToken(primitive.NewObjectID(), "", -time.Minute)
	if _, err := ValidateToken(expired); err == nil {
		t.Error("expired token accepted")
	}

	SetSecret("other-secret")
	foreign, _ := GenerateToken(primitive.NewObjectID(), "", time.Hour)
	SetSecret("test-secret")
	if _, err := ValidateToken(foreign); err == nil {
		t.Error("token signed with another secret accepted")
	}
}
