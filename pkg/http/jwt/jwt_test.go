package jwt

import (
	"testing"
	"time"

	"github.com/tenantry/tenantry/pkg/http"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/17 22:47
 * @file: jwt_test.go
 * @description:
 */

func TestJwt(t *testing.T) {

	userId := "1"
	orgId := "org-1"
	secretKey := []byte("1111111111111111")
	accessExpired := time.Hour * 24
	refreshExpired := time.Hour * 24 * 7

	aToken, rToken, err := GenToken(userId, orgId, secretKey, accessExpired, refreshExpired)
	if err != nil {
		t.Errorf("GenToken error: %v", err)
	}
	t.Logf("aToken: %s, rToken: %s", aToken, rToken)
}

func TestParseToken(t *testing.T) {

	userId := "1b8be82017ba4d4982d9e6e429438cf9"
	orgId := "org-42"
	secretKey := "bf284d03-ba65-42d4-a9fe-0d2fbfe61060"

	aToken, _, err := GenToken(userId, orgId, []byte(secretKey), time.Hour, 2*time.Hour)
	if err != nil {
		t.Fatalf("GenToken error: %v", err)
	}

	claims, err := ParseToken(aToken, secretKey)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserId != userId {
		t.Errorf("userId mismatch: %s", claims.UserId)
	}
	if claims.OrgId != orgId {
		t.Errorf("orgId mismatch: %s", claims.OrgId)
	}
}

func TestRefreshToken(t *testing.T) {

	userId := "1"
	orgId := "org-1"
	secretKey := "bf284d03-ba65-42d4-a9fe-0d2fbfe61060"
	accessExpire := 3600 * time.Second
	refreshExpire := 7200 * time.Second
	aToken, rToken, err := GenToken(userId, orgId, []byte(secretKey), accessExpire, refreshExpire)
	if err != nil {
		t.Errorf("GenToken error: %v", err)
	}
	t.Logf("aToken: %s\n rToken: %s", aToken, rToken)

	auth := &http.Auth{
		SecretKey:     secretKey,
		AccessExpire:  accessExpire,
		RefreshExpire: refreshExpire,
	}
	newRefreshToken, err := RefreshToken(auth, userId, orgId, rToken)
	if err != nil {
		t.Errorf("RefreshToken error: %v", err)
	}
	t.Logf("newRefeshToken: %s", newRefreshToken)
}
