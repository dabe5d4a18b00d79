package handlers

import (
	"net/http"
	"strings"
	"time"
)

// loginResponse — ответ на успешный обмен кода авторизации.
type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// accessTokenResponse — ответ на успешное обновление access-токена.
type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// logoutResponse — подтверждение выхода.
type logoutResponse struct {
	ID       int64  `json:"id"`
	LogoutAt string `json:"logoutAt"`
}

// missingHeaderResponse — тело 422 при полном отсутствии заголовка Authorization.
type missingHeaderResponse struct {
	Summary string `json:"summary"`
}

// bearerToken извлекает токен из Authorization.
//
// Контракт различает два случая:
//   - заголовок отсутствует вовсе -> (_, _, present=false);
//   - заголовок есть, но пустой или без схемы Bearer -> (_, ok=false, present=true).
func bearerToken(r *http.Request) (token string, ok, present bool) {
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		return "", false, false
	}

	raw := values[0]
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return "", false, true
	}

	token = raw[len(prefix):]
	if token == "" {
		return "", false, true
	}
	return token, true, true
}

// BBatonLogin обменивает код авторизации BBaton на пару токенов.
//
// POST /auth/bbaton?code=...
func (h *Handlers) BBatonLogin(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusUnprocessableEntity,
			missingHeaderResponse{Summary: "Property 'code' is missing"})
		return
	}

	pair, _, err := h.auth.LoginWithBBaton(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// AccessToken выпускает новый access-токен по refresh-токену.
//
// POST /auth/access-token, Authorization: Bearer <refresh>
func (h *Handlers) AccessToken(w http.ResponseWriter, r *http.Request) {
	token, ok, present := bearerToken(r)
	if !present {
		writeJSON(w, http.StatusUnprocessableEntity,
			missingHeaderResponse{Summary: "Property 'authorization' is missing"})
		return
	}
	if !ok {
		writeText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	accessToken, err := h.auth.RefreshAccessToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: accessToken})
}

// Logout отзывает сессию, связанную с предъявленным access-токеном.
//
// DELETE /auth/logout, Authorization: Bearer <access>
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok, present := bearerToken(r)
	if !present {
		writeJSON(w, http.StatusUnprocessableEntity,
			missingHeaderResponse{Summary: "Property 'authorization' is missing"})
		return
	}
	if !ok {
		writeText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, logoutAt, err := h.auth.Logout(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logoutResponse{
		ID:       userID,
		LogoutAt: logoutAt.UTC().Format(time.RFC3339),
	})
}
