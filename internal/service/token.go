package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jayudam/auth-service/internal/models"
	"github.com/jayudam/auth-service/internal/pkg/log"
)

// tokenClaims — общий формат claims для обоих классов токенов.
// sub — десятичный id пользователя, sid — id сессии логина.
// Один и тот же sid зашивается в access и refresh, выпущенные при одном логине.
type tokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// tokenPayload — результат успешной проверки токена.
type tokenPayload struct {
	UserID    int64
	SessionID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// secretFor возвращает секрет подписи для класса токена.
// Классы подписываются разными секретами: access-токен, предъявленный
// как refresh, падает именно на проверке подписи.
func (s *Service) secretFor(class models.TokenClass) []byte {
	if class == models.TokenRefresh {
		return []byte(s.cfg.RefreshTokenSecret)
	}

	return []byte(s.cfg.AccessTokenSecret)
}

// ttlFor возвращает время жизни для класса токена.
func (s *Service) ttlFor(class models.TokenClass) time.Duration {
	if class == models.TokenRefresh {
		return s.cfg.RefreshTokenTTL
	}

	return s.cfg.AccessTokenTTL
}

// signToken выпускает токен заданного класса для пользователя и сессии.
func (s *Service) signToken(ctx context.Context, class models.TokenClass, userID int64, sessionID uuid.UUID, now time.Time) (string, error) {
	const op = "service.token.signToken"

	lg := log.From(ctx)

	claims := tokenClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttlFor(class))),
			Issuer:    s.cfg.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretFor(class))
	if err != nil {
		lg.Error("token_sign_failed",
			slog.String("op", op),
			slog.String("class", class.String()),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// verifyToken проверяет подпись/срок токена как класс class и валидирует payload.
//
// Разделение ошибок важно для HTTP-маппинга на транспорте:
//   - битая подпись, чужой секрет, чужой класс — ErrInvalidToken (401);
//   - истёкший срок — ErrTokenExpired (401);
//   - подпись корректна, но sub/sid отсутствуют или некорректны — ErrInvalidPayload (422).
func (s *Service) verifyToken(tokenStr string, class models.TokenClass) (*tokenPayload, error) {
	const op = "service.token.verifyToken"

	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return s.secretFor(class), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	// sub: обязателен, строго положительное целое.
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPayload)
	}

	// sid: обязателен, валидный UUID.
	sid, err := uuid.Parse(claims.SessionID)
	if err != nil || sid == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPayload)
	}

	payload := &tokenPayload{
		UserID:    uid,
		SessionID: sid,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}

	return payload, nil
}
