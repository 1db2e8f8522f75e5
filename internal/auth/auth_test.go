package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService("test-secret", "admin", string(hash))
}

func TestIssueAndParse(t *testing.T) {
	a := newTestService(t)
	tok, err := a.IssueJWT("admin", RoleOperator)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Sub != "admin" || claims.Role != RoleOperator {
		t.Fatalf("claims: %+v", claims)
	}

	other := NewAuthService("different-secret", "admin", "")
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestCheckPassword(t *testing.T) {
	a := newTestService(t)
	if !a.CheckPassword("admin", "s3cret") {
		t.Fatal("valid credentials rejected")
	}
	if a.CheckPassword("admin", "wrong") {
		t.Fatal("wrong password accepted")
	}
	if a.CheckPassword("root", "s3cret") {
		t.Fatal("wrong username accepted")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := newTestService(t)
	handler := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", rr.Code)
	}

	tok, _ := a.IssueJWT("admin", RoleOperator)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("valid token: got %d", rr.Code)
	}
}
