package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

const testSecret = "unit-test-secret"

func signToken(test *testing.T, secret, sub, role string) string {
	test.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().UTC().Add(time.Minute).Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		test.Fatalf("sign token: %v", err)
	}
	return signed
}

func runProtected(test *testing.T, authHeader string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	test.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTAuthRejectsMissingAndBadTokens(test *testing.T) {
	test.Parallel()
	if rec := runProtected(test, "", JWTAuth(testSecret)); rec.Code != http.StatusUnauthorized {
		test.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := runProtected(test, "Bearer not-a-jwt", JWTAuth(testSecret)); rec.Code != http.StatusUnauthorized {
		test.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
	wrong := signToken(test, "other-secret", "u1", model.RoleClient)
	if rec := runProtected(test, "Bearer "+wrong, JWTAuth(testSecret)); rec.Code != http.StatusUnauthorized {
		test.Fatalf("expected 401 for wrong signature, got %d", rec.Code)
	}
}

func TestJWTAuthInjectsClaims(test *testing.T) {
	test.Parallel()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(test, testSecret, "user-42", model.RoleOwner))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUser, gotRole interface{}
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotUser = c.Get("user_id")
		gotRole = c.Get("role")
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		test.Fatalf("handler error: %v", err)
	}
	if gotUser != "user-42" || gotRole != model.RoleOwner {
		test.Fatalf("claims not injected: user=%v role=%v", gotUser, gotRole)
	}
}

func TestRequireRoleAllowsListedAndAdmin(test *testing.T) {
	test.Parallel()
	owner := signToken(test, testSecret, "u1", model.RoleOwner)
	client := signToken(test, testSecret, "u2", model.RoleClient)
	admin := signToken(test, testSecret, "u3", model.RoleAdmin)

	gate := []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole(model.RoleOwner)}

	if rec := runProtected(test, "Bearer "+owner, gate...); rec.Code != http.StatusOK {
		test.Fatalf("expected owner to pass, got %d", rec.Code)
	}
	if rec := runProtected(test, "Bearer "+client, gate...); rec.Code != http.StatusForbidden {
		test.Fatalf("expected client to be forbidden, got %d", rec.Code)
	}
	if rec := runProtected(test, "Bearer "+admin, gate...); rec.Code != http.StatusOK {
		test.Fatalf("expected admin to pass every gate, got %d", rec.Code)
	}
}
