package service

import (
	"context"
	"time"

	"audibleai-be/internal/dto"
	"audibleai-be/internal/entity"
	"audibleai-be/internal/pkg/apperror"
	"audibleai-be/internal/pkg/logger"
	"audibleai-be/internal/repository/specification"
	"audibleai-be/internal/repository/unitofwork"

	"audibleai-be/pkg/events"
	pktNats "audibleai-be/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context) error
	VerifyToken(token string) (uuid.UUID, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	jwtSecret      []byte
	tokenTTL       time.Duration
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	jwtSecret string,
	tokenTTL time.Duration,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
		jwtSecret:      []byte(jwtSecret),
		tokenTTL:       tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.New(apperror.KindValidation, "email and password are required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Check for existing user
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to look up user", err)
	}
	if existing != nil {
		return nil, apperror.New(apperror.KindConflict, "email already registered")
	}

	// 2. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnknown, "failed to hash password", err)
	}

	// 3. Create user entity
	now := time.Now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to create user", err)
	}

	// 4. Stamp first login. Registration logs the user in immediately, so the
	// account never exists without a last_login_at.
	if err := uow.UserRepository().UpdateLastLogin(ctx, user.Id); err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to stamp login", err)
	}

	token, err := s.issueToken(user.Id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "USER_REGISTERED", user.Id)

	return &dto.RegisterResponse{Token: token, UserId: user.Id}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.New(apperror.KindValidation, "email and password are required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperror.New(apperror.KindAuth, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.KindAuth, "invalid credentials")
	}

	if err := uow.UserRepository().UpdateLastLogin(ctx, user.Id); err != nil {
		return nil, apperror.Wrap(apperror.KindStore, "failed to stamp login", err)
	}

	token, err := s.issueToken(user.Id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "USER_LOGIN", user.Id)

	return &dto.LoginResponse{Token: token}, nil
}

// Logout is intentionally a no-op. Tokens are stateless and stay valid
// until expiry; the client discards its copy.
func (s *authService) Logout(ctx context.Context) error {
	return nil
}

func (s *authService) issueToken(userId uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperror.Wrap(apperror.KindUnknown, "failed to sign token", err)
	}
	return signed, nil
}

// VerifyToken fails closed: any parse, signature, expiry or claim-shape
// problem yields an auth error, never a panic or a zero-value pass.
func (s *authService) VerifyToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.New(apperror.KindAuth, "unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperror.New(apperror.KindAuth, "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperror.New(apperror.KindAuth, "invalid token claims")
	}

	rawId, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, apperror.New(apperror.KindAuth, "token missing user identity")
	}

	userId, err := uuid.Parse(rawId)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.KindAuth, "token carries malformed user identity")
	}

	return userId, nil
}

func (s *authService) publishEvent(ctx context.Context, eventType string, userId uuid.UUID) {
	if s.eventPublisher == nil {
		return
	}
	event := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"user_id": userId,
			"time":    time.Now().Format(time.RFC822),
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("auth_service", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
