package service

import (
	"context"
	"testing"
	"time"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func newTestAuthService(store *memStore) IAuthService {
	return NewAuthService(&memFactory{s: store}, nil, nopLogger{}, testSecret, 24*time.Hour)
}

func TestRegisterSucceedsOnceThenConflicts(t *testing.T) {
	svc := newTestAuthService(newMemStore())
	ctx := context.Background()

	req := &dto.RegisterRequest{Email: "alice@example.com", Password: "secret"}

	res, err := svc.Register(ctx, req)
	assert.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEqual(t, uuid.Nil, res.UserId)

	_, err = svc.Register(ctx, req)
	assert.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newTestAuthService(newMemStore())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *dto.RegisterRequest
	}{
		{name: "missing email", req: &dto.RegisterRequest{Password: "secret"}},
		{name: "missing password", req: &dto.RegisterRequest{Email: "a@b.com"}},
		{name: "missing both", req: &dto.RegisterRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestLoginReturnsTokenForRegisteredUser(t *testing.T) {
	svc := newTestAuthService(newMemStore())
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Email: "bob@example.com", Password: "hunter2"})
	assert.NoError(t, err)

	res, err := svc.Login(ctx, &dto.LoginRequest{Email: "bob@example.com", Password: "hunter2"})
	assert.NoError(t, err)

	// The token embeds the registered user's id.
	userId, err := svc.VerifyToken(res.Token)
	assert.NoError(t, err)
	assert.Equal(t, reg.UserId, userId)
}

func TestLoginFailsClosed(t *testing.T) {
	svc := newTestAuthService(newMemStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Email: "carol@example.com", Password: "correct"})
	assert.NoError(t, err)

	tests := []struct {
		name string
		req  *dto.LoginRequest
	}{
		{name: "wrong password", req: &dto.LoginRequest{Email: "carol@example.com", Password: "wrong"}},
		{name: "unknown email", req: &dto.LoginRequest{Email: "nobody@example.com", Password: "correct"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.req)
			assert.Error(t, err)
			assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
		})
	}
}

func TestVerifyTokenRejectsBadTokens(t *testing.T) {
	svc := newTestAuthService(newMemStore())

	signWith := func(secret string, claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, _ := token.SignedString([]byte(secret))
		return signed
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{
			name: "expired",
			token: signWith(testSecret, jwt.MapClaims{
				"user_id": "5a3c9a43-9db8-4e3f-9626-9c7c57c8b3cf",
				"exp":     time.Now().Add(-time.Minute).Unix(),
			}),
		},
		{
			name: "wrong secret",
			token: signWith("other-secret", jwt.MapClaims{
				"user_id": "5a3c9a43-9db8-4e3f-9626-9c7c57c8b3cf",
				"exp":     time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "missing user id",
			token: signWith(testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "malformed user id",
			token: signWith(testSecret, jwt.MapClaims{
				"user_id": "definitely-not-a-uuid",
				"exp":     time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyToken(tt.token)
			assert.Error(t, err)
			assert.Equal(t, apperror.KindAuth, apperror.KindOf(err))
		})
	}
}

func TestLogoutIsStatelessNoOp(t *testing.T) {
	svc := newTestAuthService(newMemStore())
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Email: "dave@example.com", Password: "pw"})
	assert.NoError(t, err)

	assert.NoError(t, svc.Logout(ctx))

	// The token stays valid until it expires on its own.
	userId, err := svc.VerifyToken(reg.Token)
	assert.NoError(t, err)
	assert.Equal(t, reg.UserId, userId)
}
