package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veritest/veritest-backend/internal/config"
	"github.com/veritest/veritest-backend/internal/service"
)

func testAuthService() *service.AuthService {
	return service.NewAuthService(&config.Config{
		JWTSecret: "unit-test-secret",
		JWTExpiry: time.Hour,
	}, nil)
}

// claimsEcho terminates the chain and reports what the guard let through.
func claimsEcho(c *gin.Context) {
	claims := GetClaims(c)
	if claims == nil {
		c.String(http.StatusInternalServerError, "no claims")
		return
	}
	if claims.IsOperator() {
		c.String(http.StatusOK, "operator")
		return
	}
	c.String(http.StatusOK, "student")
}

func doRequest(t *testing.T, guard gin.HandlerFunc, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded", guard, claimsEcho)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" && path == "/guarded" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireSessionJWTAcceptsBothTokenTypes(t *testing.T) {
	auth := testAuthService()

	operatorToken, err := auth.GenerateOperatorToken(3)
	if err != nil {
		t.Fatalf("GenerateOperatorToken: %v", err)
	}

	w := doRequest(t, RequireSessionJWT(auth), "/guarded", operatorToken)
	if w.Code != http.StatusOK || w.Body.String() != "operator" {
		t.Errorf("operator token: status %d body %q, want 200 operator", w.Code, w.Body.String())
	}

	// Student tokens pass the same guard. GenerateStudentToken needs Redis
	// for the login registry, so build the claims through the operator's
	// code path shape: validate round-trip is covered by the operator case,
	// here we only need rejection of garbage.
	w = doRequest(t, RequireSessionJWT(auth), "/guarded", "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", w.Code)
	}

	w = doRequest(t, RequireSessionJWT(auth), "/guarded", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d, want 401", w.Code)
	}
}

func TestRequireStudentJWTStillRejectsOperators(t *testing.T) {
	auth := testAuthService()

	operatorToken, err := auth.GenerateOperatorToken(3)
	if err != nil {
		t.Fatalf("GenerateOperatorToken: %v", err)
	}

	w := doRequest(t, RequireStudentJWT(auth), "/guarded", operatorToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("operator on student-only route: status %d, want 403", w.Code)
	}
}

func TestRequireWSAuthAcceptsQueryToken(t *testing.T) {
	auth := testAuthService()

	operatorToken, err := auth.GenerateOperatorToken(9)
	if err != nil {
		t.Fatalf("GenerateOperatorToken: %v", err)
	}

	w := doRequest(t, RequireWSAuth(auth), "/guarded?token="+operatorToken, "")
	if w.Code != http.StatusOK || w.Body.String() != "operator" {
		t.Errorf("operator ws token: status %d body %q, want 200 operator", w.Code, w.Body.String())
	}

	w = doRequest(t, RequireWSAuth(auth), "/guarded", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing ws token: status %d, want 401", w.Code)
	}
}
