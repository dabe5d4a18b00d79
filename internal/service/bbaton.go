package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jayudam/auth-service/internal/config"
	"github.com/jayudam/auth-service/internal/pkg/log"
)

// BBatonProvider — имя провайдера во внешних oauth-связках.
const BBatonProvider = "bbaton"

// BBatonClient выполняет OAuth-обмен кода и запрос профиля у BBaton.
// URL эндпоинтов берутся из конфигурации, чтобы тесты могли подставить httptest.
type BBatonClient struct {
	cfg    config.BBatonConfig
	client *http.Client
}

// NewBBatonClient создаёт клиент BBaton. httpClient == nil — используется
// клиент с разумным таймаутом.
func NewBBatonClient(cfg config.BBatonConfig, httpClient *http.Client) *BBatonClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &BBatonClient{cfg: cfg, client: httpClient}
}

// bbatonToken — ответ токен-эндпоинта BBaton.
type bbatonToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// BBatonUser — профиль пользователя BBaton.
type BBatonUser struct {
	UserID    string `json:"user_id"`
	AdultFlag string `json:"adult_flag"`
	BirthYear string `json:"birth_year"`
	Gender    string `json:"gender"`
}

// ExchangeCode меняет authorization code на access-токен BBaton.
func (c *BBatonClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	const op = "service.bbaton.ExchangeCode"

	lg := log.From(ctx)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		lg.Error("bbaton_token_request_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		lg.Warn("bbaton_token_rejected",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		return "", fmt.Errorf("%s: %w", op, ErrOAuthExchange)
	}

	var token bbatonToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%s: %w", op, ErrOAuthExchange)
	}

	return token.AccessToken, nil
}

// UserInfo запрашивает профиль пользователя по access-токену BBaton.
func (c *BBatonClient) UserInfo(ctx context.Context, accessToken string) (*BBatonUser, error) {
	const op = "service.bbaton.UserInfo"

	lg := log.From(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		lg.Error("bbaton_user_request_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		lg.Warn("bbaton_user_rejected",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrOAuthExchange)
	}

	var user BBatonUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrOAuthExchange)
	}

	return &user, nil
}
