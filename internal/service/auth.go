package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jayudam/auth-service/internal/cache"
	"github.com/jayudam/auth-service/internal/models"
	"github.com/jayudam/auth-service/internal/pkg/log"
	"github.com/jayudam/auth-service/internal/storage"
)

// LoginWithBBaton выполняет вход по OAuth-коду BBaton:
// обмен кода, поиск/создание пользователя, проверка блокировки,
// создание сессии и выпуск пары токенов с общим sid.
func (s *Service) LoginWithBBaton(ctx context.Context, code string) (*models.TokenPair, int64, error) {
	const op = "service.auth.LoginWithBBaton"

	lg := log.From(ctx)

	oauthToken, err := s.bbaton.ExchangeCode(ctx, code)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	bu, err := s.bbaton.UserInfo(ctx, oauthToken)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByOAuth(ctx, BBatonProvider, bu.UserID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}

		user, err = s.registerBBatonUser(ctx, bu)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	// Блокировка проверяется и на логине: активная блокировка — отказ.
	if user.SuspensionActive(time.Now().UTC()) {
		lg.Warn("login_suspended_user",
			slog.String("op", op),
			slog.Int64("user_id", user.ID),
		)
		return nil, 0, fmt.Errorf("%s: %w", op, ErrUserSuspended)
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.ID, nil
}

// RefreshAccessToken выпускает новый access-токен по refresh-токену.
//
// Порядок проверок фиксирован (ранний выход на первой ошибке):
//  1. подпись/срок/класс refresh-токена;
//  2. payload (sub, sid);
//  3. сессия существует и не отозвана;
//  4. на пользователе нет активной блокировки.
//
// Refresh-токен при этом не ротируется: единственная граница его жизни —
// собственный exp.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	const op = "service.auth.RefreshAccessToken"

	lg := log.From(ctx)

	payload, err := s.verifyToken(refreshToken, models.TokenRefresh)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.lookupSession(ctx, payload.SessionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if session.Revoked() {
		lg.Warn("refresh_revoked_session",
			slog.String("op", op),
			slog.String("session_id", session.ID.String()),
		)
		return "", fmt.Errorf("%s: %w", op, ErrSessionRevoked)
	}

	// sub и владелец сессии обязаны совпадать; расхождение — чужой токен.
	if session.UserID != payload.UserID {
		return "", fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	user, err := s.storage.UserByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if user.SuspensionActive(time.Now().UTC()) {
		lg.Warn("refresh_suspended_user",
			slog.String("op", op),
			slog.Int64("user_id", user.ID),
		)
		return "", fmt.Errorf("%s: %w", op, ErrUserSuspended)
	}

	accessToken, err := s.signToken(ctx, models.TokenAccess, user.ID, session.ID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, nil
}

// Logout отзывает сессию, указанную в sid предъявленного access-токена.
// Идемпотентен: повторный logout уже отозванной сессии — успех.
// Возвращает id пользователя и момент отзыва.
func (s *Service) Logout(ctx context.Context, accessToken string) (int64, time.Time, error) {
	const op = "service.auth.Logout"

	lg := log.From(ctx)

	payload, err := s.verifyToken(accessToken, models.TokenAccess)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	revoked, err := s.storage.RevokeSession(ctx, payload.SessionID, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, time.Time{}, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}

		return 0, time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if !revoked {
		lg.Info("logout_already_revoked",
			slog.String("op", op),
			slog.String("session_id", payload.SessionID.String()),
		)
	}

	// Кэш помечаем best-effort: источник истины — Postgres.
	if s.scache != nil {
		if cerr := s.scache.MarkRevoked(ctx, payload.SessionID); cerr != nil {
			lg.Warn("session_cache_mark_revoked_failed",
				slog.String("op", op),
				slog.String("err", cerr.Error()),
			)
		}
	}

	return payload.UserID, now, nil
}

// registerBBatonUser создаёт пользователя по профилю BBaton и привязывает oauth.
func (s *Service) registerBBatonUser(ctx context.Context, bu *BBatonUser) (*models.User, error) {
	const op = "service.auth.registerBBatonUser"

	now := time.Now().UTC()
	user := &models.User{
		Name:          bu.UserID,
		Nickname:      "",
		CreatedAt:     now,
		UpdatedAt:     now,
		SuspendedType: models.SuspendedNone,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.LinkOAuth(ctx, BBatonProvider, bu.UserID, user.ID); err != nil {
		// Гонка параллельных логинов одного и того же аккаунта: связку
		// успел создать другой запрос — перечитываем пользователя.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return s.storage.UserByOAuth(ctx, BBatonProvider, bu.UserID)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// issueTokenPair создаёт сессию и выпускает пару access+refresh с общим sid.
func (s *Service) issueTokenPair(ctx context.Context, userID int64) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, err := s.signToken(ctx, models.TokenAccess, userID, session.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.signToken(ctx, models.TokenRefresh, userID, session.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.scache != nil {
		entry := &cache.SessionEntry{UserID: userID, ExpiresAt: session.ExpiresAt}
		if cerr := s.scache.Set(ctx, session.ID, entry, s.cfg.RefreshTokenTTL); cerr != nil {
			log.From(ctx).Warn("session_cache_set_failed",
				slog.String("op", op),
				slog.String("err", cerr.Error()),
			)
		}
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// lookupSession ищет сессию с обязательным чтением из Postgres.
// Кэш используется только как fast-path для уже отозванных сессий:
// положительный ответ кэша ("не отозвана") не заменяет чтение из БД,
// иначе logout, закоммиченный перед конкурентным refresh, мог бы
// остаться незамеченным при рассинхронизации кэша.
func (s *Service) lookupSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const op = "service.auth.lookupSession"

	lg := log.From(ctx)

	if s.scache != nil {
		entry, ok, cerr := s.scache.Get(ctx, id)
		if cerr != nil {
			lg.Warn("session_cache_get_failed",
				slog.String("op", op),
				slog.String("err", cerr.Error()),
			)
		} else if ok && entry.Revoked {
			at := time.Now().UTC()
			return &models.Session{
				ID:        id,
				UserID:    entry.UserID,
				ExpiresAt: entry.ExpiresAt,
				RevokedAt: &at,
			}, nil
		}
	}

	session, err := s.storage.SessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}
