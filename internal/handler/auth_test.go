package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/uninest/internal/config"
	"github.com/iliyamo/uninest/internal/logger"
	"github.com/iliyamo/uninest/internal/model"
	"github.com/iliyamo/uninest/internal/utils"
)

const testSecret = "handler-secret"

func newAuth() (*AuthHandler, *mockUsers, *mockTokens) {
	users, tokens := newMockUsers(), newMockTokens()
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	return NewAuthHandler(cfg, users, tokens, logger.Discard()), users, tokens
}

func jsonCtx(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const validRegistration = `{"email":"Riya@Example.com","password":"longpassword","phone":"9876543210","name":"Riya","location":"Pune","role":"student"}`

func TestRegister_Success(t *testing.T) {
	h, _, tokens := newAuth()
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", validRegistration)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, "riya@example.com", resp.User.Email)
	assert.Equal(t, model.RoleStudent, resp.User.Role)
	assert.NotContains(t, rec.Body.String(), "password_hash")

	p, err := utils.ParseAccessToken(testSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, p.UserID)
	assert.Equal(t, 1, tokens.active(resp.User.ID))
}

func TestRegister_Validation(t *testing.T) {
	cases := map[string]string{
		"bad phone":    `{"email":"a@b.in","password":"longpassword","phone":"1234567890","name":"A","role":"student"}`,
		"short phone":  `{"email":"a@b.in","password":"longpassword","phone":"98765","name":"A","role":"student"}`,
		"short pass":   `{"email":"a@b.in","password":"short","phone":"9876543210","name":"A","role":"student"}`,
		"no email":     `{"password":"longpassword","phone":"9876543210","name":"A","role":"student"}`,
		"no name":      `{"email":"a@b.in","password":"longpassword","phone":"9876543210","role":"student"}`,
		"admin role":   `{"email":"a@b.in","password":"longpassword","phone":"9876543210","name":"A","role":"admin"}`,
		"unknown role": `{"email":"a@b.in","password":"longpassword","phone":"9876543210","name":"A","role":"manager"}`,
		"bad json":     `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h, _, _ := newAuth()
			c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", body)
			require.NoError(t, h.Register(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	h, _, _ := newAuth()
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", validRegistration)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/register", validRegistration)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	samePhone := strings.Replace(validRegistration, "Riya@Example.com", "other@example.com", 1)
	c, rec = jsonCtx(http.MethodPost, "/v1/auth/register", samePhone)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "phone")
}

func TestLogin_ByEmailOrPhone(t *testing.T) {
	h, _, _ := newAuth()
	c, _ := jsonCtx(http.MethodPost, "/v1/auth/register", validRegistration)
	require.NoError(t, h.Register(c))

	for _, body := range []string{
		`{"identifier":"riya@example.com","password":"longpassword"}`,
		`{"identifier":"9876543210","password":"longpassword"}`,
		`{"email":"riya@example.com","password":"longpassword"}`,
	} {
		c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", body)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code, body)
	}

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", `{"identifier":"riya@example.com","password":"nope-nope"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/login", `{"identifier":"ghost@example.com","password":"longpassword"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_DisabledAccount(t *testing.T) {
	h, users, _ := newAuth()
	id, err := users.Create(context.Background(), model.User{Email: "off@b.in", Phone: "9000000000", Role: model.RoleStudent}, "longpassword", 4)
	require.NoError(t, err)

	c, rec := jsonCtx(http.MethodPost, "/v1/auth/login", `{"identifier":"off@b.in","password":"longpassword"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotZero(t, id)
}

func TestRefresh_RotatesToken(t *testing.T) {
	h, _, tokens := newAuth()
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", validRegistration)
	require.NoError(t, h.Register(c))
	first := decode(t, rec)

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode(t, rec)
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)
	assert.Equal(t, 1, tokens.active(first.User.ID))

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	h, _, tokens := newAuth()
	c, rec := jsonCtx(http.MethodPost, "/v1/auth/register", validRegistration)
	require.NoError(t, h.Register(c))
	reg := decode(t, rec)

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/login", `{"identifier":"riya@example.com","password":"longpassword"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, 2, tokens.active(reg.User.ID))

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+reg.Refresh.Token+`"}`)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, tokens.active(reg.User.ID))

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/logout", `{}`)
	c.Request().Header.Set("Authorization", "Bearer "+reg.Access.Token)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, tokens.active(reg.User.ID))

	c, rec = jsonCtx(http.MethodPost, "/v1/auth/logout", `{}`)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	h, users, _ := newAuth()
	id, err := users.Create(context.Background(), model.User{Email: "me@b.in", Phone: "9111111111", Name: "Me", Role: model.RoleLibrary, IsActive: true}, "longpassword", 4)
	require.NoError(t, err)

	c, rec := jsonCtx(http.MethodGet, "/v1/me", "")
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = jsonCtx(http.MethodGet, "/v1/me", "")
	c.Set("user_id", id)
	c.Set("role", model.RoleLibrary)
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"me@b.in"`)
}
