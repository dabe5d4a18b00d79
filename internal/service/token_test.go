package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jayudam/auth-service/internal/config"
	"github.com/jayudam/auth-service/internal/models"
	"github.com/jayudam/auth-service/internal/storage/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "unit-access-secret",
		RefreshTokenSecret: "unit-refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    720 * time.Hour,
		Issuer:             "auth-service",
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg(), nil)
	return svc, st, ctrl
}

// signRawToken подписывает произвольные claims нужным секретом —
// для тестов с неполным/битым payload.
func signRawToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSignVerify_BothClasses(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	sid := uuid.New()
	now := time.Now().UTC()

	for _, class := range []models.TokenClass{models.TokenAccess, models.TokenRefresh} {
		signed, err := svc.signToken(ctx, class, 42, sid, now)
		require.NoError(t, err)

		payload, err := svc.verifyToken(signed, class)
		require.NoError(t, err)
		require.Equal(t, int64(42), payload.UserID)
		require.Equal(t, sid, payload.SessionID)
		require.WithinDuration(t, now.Add(svc.ttlFor(class)), payload.ExpiresAt, 2*time.Second)
	}
}

func TestVerify_WrongClass_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	sid := uuid.New()
	now := time.Now().UTC()

	// Access-токен, предъявленный как refresh, режется подписью.
	access, err := svc.signToken(ctx, models.TokenAccess, 42, sid, now)
	require.NoError(t, err)

	_, err = svc.verifyToken(access, models.TokenRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	// И наоборот.
	refresh, err := svc.signToken(ctx, models.TokenRefresh, 42, sid, now)
	require.NoError(t, err)

	_, err = svc.verifyToken(refresh, models.TokenAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	// exp в прошлом дальше leeway.
	signed, err := svc.signToken(context.Background(), models.TokenAccess, 42, uuid.New(),
		time.Now().UTC().Add(-svc.cfg.AccessTokenTTL-time.Minute))
	require.NoError(t, err)

	_, err = svc.verifyToken(signed, models.TokenAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	signed, err := svc.signToken(context.Background(), models.TokenAccess, 42, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.verifyToken(signed+"x", models.TokenAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.verifyToken(raw, models.TokenAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestVerify_BadSubject_InvalidPayload(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	exp := time.Now().UTC().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing_sub", jwt.MapClaims{"sid": uuid.New().String(), "iss": "auth-service", "exp": exp}},
		{"non_numeric_sub", jwt.MapClaims{"sub": "abc", "sid": uuid.New().String(), "iss": "auth-service", "exp": exp}},
		{"zero_sub", jwt.MapClaims{"sub": "0", "sid": uuid.New().String(), "iss": "auth-service", "exp": exp}},
		{"negative_sub", jwt.MapClaims{"sub": "-7", "sid": uuid.New().String(), "iss": "auth-service", "exp": exp}},
		{"missing_sid", jwt.MapClaims{"sub": "42", "iss": "auth-service", "exp": exp}},
		{"bad_sid", jwt.MapClaims{"sub": "42", "sid": "not-a-uuid", "iss": "auth-service", "exp": exp}},
		{"nil_sid", jwt.MapClaims{"sub": "42", "sid": uuid.Nil.String(), "iss": "auth-service", "exp": exp}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			signed := signRawToken(t, testCfg().AccessTokenSecret, tc.claims)
			_, err := svc.verifyToken(signed, models.TokenAccess)
			require.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestVerify_WrongIssuer_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	signed := signRawToken(t, testCfg().AccessTokenSecret, jwt.MapClaims{
		"sub": "42",
		"sid": uuid.New().String(),
		"iss": "someone-else",
		"exp": time.Now().UTC().Add(time.Hour).Unix(),
	})

	_, err := svc.verifyToken(signed, models.TokenAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSign_SubjectIsDecimalUserID(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	const userID int64 = 9000000001

	signed, err := svc.signToken(context.Background(), models.TokenAccess, userID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	var claims tokenClaims
	_, _, err = jwt.NewParser().ParseUnverified(signed, &claims)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(userID, 10), claims.Subject)
}
