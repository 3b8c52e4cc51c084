package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos"
	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/ctxutil"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

// maxEmailBytes is the longest address SMTP allows.
const maxEmailBytes = 254

type RegisterInput struct {
	Email    string
	Password string
	Role     string
	Name     string
}

type LoginResult struct {
	User        domain.PublicUser
	AccessToken string
	ExpiresIn   int64
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (domain.PublicUser, error)
	LoginUser(ctx context.Context, email, password string) (*LoginResult, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	therapistRepo repos.TherapistRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	bcryptCost    int
}

func NewAuthService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	therapistRepo repos.TherapistRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	bcryptCost int,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:           serviceLog,
		userRepo:      userRepo,
		therapistRepo: therapistRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		bcryptCost:    bcryptCost,
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (domain.PublicUser, error) {
	const op = "auth.register"

	role := domain.Role(strings.TrimSpace(in.Role))
	if !role.Valid() {
		return domain.PublicUser{}, domain.NewError(domain.CodeInvalidRole, op, "role must be patient or therapist", nil)
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return domain.PublicUser{}, domain.InvalidInput(op, "email and password are required")
	}
	if !strings.Contains(email, "@") || len(email) > maxEmailBytes {
		return domain.PublicUser{}, domain.InvalidInput(op, "email is not valid")
	}

	hash, err := hashPassword(in.Password, as.bcryptCost)
	if errors.Is(err, errPasswordTooLong) {
		return domain.PublicUser{}, domain.InvalidInput(op, err.Error())
	}
	if err != nil {
		return domain.PublicUser{}, domain.Wrap(domain.CodeInternal, op, fmt.Errorf("hash password: %w", err))
	}

	u := &domain.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         strings.TrimSpace(in.Name),
		CreatedAt:    nowUTC(),
	}
	created, err := as.userRepo.Create(ctx, u)
	if errors.Is(err, repos.ErrEmailTaken) {
		return domain.PublicUser{}, domain.NewError(domain.CodeDuplicateEmail, op, "email already registered", err)
	}
	if err != nil {
		return domain.PublicUser{}, storeError(op, "user", err)
	}

	if role == domain.RoleTherapist {
		profile := domain.NewTherapistProfile(newID(), created.ID, created.CreatedAt)
		if _, err := as.therapistRepo.Create(ctx, profile); err != nil {
			undoCtx, cancel := kv.CompensationContext(ctx)
			defer cancel()
			if delErr := as.userRepo.Delete(undoCtx, created.ID); delErr != nil {
				as.log.Error("failed to roll back user after therapist profile error", "user_id", created.ID, "error", delErr)
			}
			return domain.PublicUser{}, storeError(op, "therapist profile", err)
		}
	}

	as.log.Info("user registered", "user_id", created.ID, "role", created.Role)
	return created.Public(), nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "auth.login"
	invalid := domain.NewError(domain.CodeInvalidCredentials, op, "Invalid credentials", nil)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid
	}
	u, err := as.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, storeError(op, "user", err)
	}
	if !passwordMatches(u.PasswordHash, password) {
		return nil, invalid
	}

	tok, err := as.generateAccessToken(u)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, op, fmt.Errorf("generate access token: %w", err))
	}
	return &LoginResult{
		User:        u.Public(),
		AccessToken: tok,
		ExpiresIn:   int64(as.accessTTL / time.Second),
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return ctx, fmt.Errorf("invalid token")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      claims.Subject,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) generateAccessToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        newID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
