package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/kv"
	types "github.com/yungbote/souling-backend/internal/domain"
	domainuser "github.com/yungbote/souling-backend/internal/domain/user"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const (
	CollectionUsers      = "user"
	CollectionEmailIndex = "user_email"
)

var ErrEmailTaken = errors.New("email already registered")

type UserRepo interface {
	Create(ctx context.Context, u *types.User) (*types.User, error)
	GetByID(ctx context.Context, userID string) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// Delete removes the user and releases the email. Compensation only.
	Delete(ctx context.Context, userID string) error
}

// emailClaim is keyed by the normalized email, so inserting it is the
// uniqueness check.
type emailClaim struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

type userRepo struct {
	users  *kv.Collection[types.User]
	emails *kv.Collection[emailClaim]
	log    *logger.Logger
}

func NewUserRepo(engine kv.Engine, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{
		users:  kv.NewCollection[types.User](engine, CollectionUsers),
		emails: kv.NewCollection[emailClaim](engine, CollectionEmailIndex),
		log:    repoLog,
	}
}

func (ur *userRepo) Create(ctx context.Context, u *types.User) (*types.User, error) {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return nil, fmt.Errorf("user id required")
	}
	u.Email = domainuser.NormalizeEmail(u.Email)

	err := ur.emails.Insert(ctx, u.Email, &emailClaim{Email: u.Email, UserID: u.ID})
	if errors.Is(err, kv.ErrDuplicateID) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("reserve email: %w", err)
	}

	if err := ur.users.Insert(ctx, u.ID, u); err != nil {
		undoCtx, cancel := kv.CompensationContext(ctx)
		defer cancel()
		if delErr := ur.emails.Delete(undoCtx, u.Email); delErr != nil {
			ur.log.Error("failed to release email reservation", "user_id", u.ID, "error", delErr)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (ur *userRepo) GetByID(ctx context.Context, userID string) (*types.User, error) {
	return ur.users.Get(ctx, userID)
}

func (ur *userRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	claim, err := ur.emails.Get(ctx, domainuser.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return ur.users.Get(ctx, claim.UserID)
}

func (ur *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := ur.emails.Get(ctx, domainuser.NormalizeEmail(email))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (ur *userRepo) Delete(ctx context.Context, userID string) error {
	u, err := ur.users.Get(ctx, userID)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := ur.users.Delete(ctx, userID); err != nil {
		return err
	}
	return ur.emails.Delete(ctx, u.Email)
}
