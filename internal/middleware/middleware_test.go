package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

func newContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	c, rec := newContext(t)
	c.Set("role", "ADMIN")

	err := RequireRole("ADMIN")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	c, rec := newContext(t)
	c.Set("role", "CUSTOMER")

	err := RequireRole("ADMIN")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	c, rec := newContext(t)

	err := RequireRole("ADMIN", "CUSTOMER")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	const secret = "test-secret"
	token, err := utils.NewAccessToken(secret, 42, "CUSTOMER", 15)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var userID uint64
	var role string
	err = JWTAuth(secret)(func(c echo.Context) error {
		userID, _ = CurrentUserID(c)
		role = CurrentRole(c)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), userID)
	assert.Equal(t, "CUSTOMER", role)
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := JWTAuth("s")(okHandler)(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	err = JWTAuth("s")(okHandler)(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A token signed with a different secret must be rejected.
	token, err := utils.NewAccessToken("other-secret", 1, "CUSTOMER", 15)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token.Token)
	rec = httptest.NewRecorder()
	err = JWTAuth("s")(okHandler)(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserIDTypeHandling(t *testing.T) {
	c, _ := newContext(t)

	_, ok := CurrentUserID(c)
	assert.False(t, ok)

	c.Set("user_id", float64(7))
	id, ok := CurrentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)

	c.Set("user_id", "12")
	id, ok = CurrentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(12), id)
}
