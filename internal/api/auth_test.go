package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(method, path, body, token string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthFlow(t *testing.T) {
	h := newTestHandler(t, &stubCompleter{})

	rec := serve(h, jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"name":"João","email":"joao@escola.com","password":"abc12345","role":"student","grade":"9º ano"}`, ""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var signup sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "/student", signup.Redirect)
	assert.NotContains(t, rec.Body.String(), "abc12345")

	rec = serve(h, jsonRequest(http.MethodGet, "/api/auth/me", "", signup.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "João", user["name"])
	assert.Equal(t, "9º ano", user["grade"])

	rec = serve(h, jsonRequest(http.MethodPost, "/api/auth/login",
		`{"email":"joao@escola.com","password":"abc12345"}`, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, jsonRequest(http.MethodPost, "/api/auth/logout", "", signup.Token))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, jsonRequest(http.MethodGet, "/api/auth/me", "", signup.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthErrors(t *testing.T) {
	h := newTestHandler(t, &stubCompleter{})
	rec := serve(h, jsonRequest(http.MethodPost, "/api/auth/signup",
		`{"name":"Ana","email":"ana@escola.com","password":"x1","role":"teacher"}`, ""))
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"duplicate signup", jsonRequest(http.MethodPost, "/api/auth/signup",
			`{"name":"Ana","email":"ANA@escola.com","password":"x1","role":"teacher"}`, ""), http.StatusConflict},
		{"invalid role", jsonRequest(http.MethodPost, "/api/auth/signup",
			`{"name":"Bia","email":"bia@escola.com","password":"x1","role":"admin"}`, ""), http.StatusBadRequest},
		{"wrong password", jsonRequest(http.MethodPost, "/api/auth/login",
			`{"email":"ana@escola.com","password":"nope"}`, ""), http.StatusUnauthorized},
		{"malformed body", jsonRequest(http.MethodPost, "/api/auth/login", `{`, ""), http.StatusBadRequest},
		{"me without token", jsonRequest(http.MethodGet, "/api/auth/me", "", ""), http.StatusUnauthorized},
		{"me with unknown token", jsonRequest(http.MethodGet, "/api/auth/me", "", "bogus"), http.StatusUnauthorized},
		{"logout without token", jsonRequest(http.MethodPost, "/api/auth/logout", "", ""), http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestUnknownTokenDoesNotBlockGeneration(t *testing.T) {
	h := newTestHandler(t, &stubCompleter{reply: questionsJSON(1)})
	req := multipartRequest(t, "/api/generate-questions-from-pdf",
		map[string]string{"subject": "Artes", "numQuestions": "1"}, nil)
	req.Header.Set("Authorization", "Bearer anon-public-key")

	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "fails on the missing file, not on auth")
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"":            "",
		"Bearer":      "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		assert.Equal(t, want, bearerToken(req), header)
	}
}
