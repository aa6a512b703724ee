package service

import (
	"context"
	"errors"
	"strings"

	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"
	"github.com/stevearchuleta/javascripteverywhere/internal/repo"
	"github.com/stevearchuleta/javascripteverywhere/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrAuthentication covers every sign-in failure the same way, so the response
// never leaks whether the account or the password was the wrong part.
var ErrAuthentication = errors.New("there was an error signing in")

// ErrAccountCreation covers every sign-up failure, duplicate username/email
// included; the cause is deliberately not distinguished in kind.
var ErrAccountCreation = errors.New("there was an error creating this account")

// UserService handles account creation, sign-in and user lookups.
type UserService struct {
	repo   repo.UserRepo
	tokens *auth.TokenIssuer
}

// NewUserService returns a new UserService.
func NewUserService(repo repo.UserRepo, tokens *auth.TokenIssuer) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

// SignUp creates an account and returns a signed session credential.
// The email is normalized (trimmed, lowercased) before hashing the avatar off
// it and storing it; the password is bcrypt-hashed.
func (s *UserService) SignUp(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return "", ErrAccountCreation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	avatar := utils.AvatarURL(email)
	u, err := s.repo.Create(ctx, username, email, string(hash), avatar)
	if err != nil {
		return "", errors.Join(ErrAccountCreation, err)
	}
	return s.tokens.Issue(u.ID)
}

// SignIn validates credentials and returns a signed session credential.
// TODO: confirm the intended lookup; GetByLogin matches the raw password
// against the hash column in its second clause, so the normalized email never
// reaches the query and signing in by email does not actually work.
func (s *UserService) SignIn(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
	}
	login := username
	if login == "" {
		login = email
	}
	u, err := s.repo.GetByLogin(ctx, login, password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAuthentication
		}
		return "", storeErr(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthentication
	}
	return s.tokens.Issue(u.ID)
}

// Me returns the account of the authenticated caller.
func (s *UserService) Me(ctx context.Context, identity *auth.Identity) (dom.User, error) {
	if identity == nil {
		return dom.User{}, ErrUnauthenticated
	}
	return s.getByID(ctx, identity.UserID)
}

// GetByID returns a user by id.
func (s *UserService) GetByID(ctx context.Context, id int64) (dom.User, error) {
	return s.getByID(ctx, id)
}

// GetByUsername returns a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return dom.User{}, translate(err)
	}
	return u, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]dom.User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

// ListByIDs returns the users whose ids are in the given set.
func (s *UserService) ListByIDs(ctx context.Context, ids []int64) ([]dom.User, error) {
	if len(ids) == 0 {
		return []dom.User{}, nil
	}
	list, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}

func (s *UserService) getByID(ctx context.Context, id int64) (dom.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.User{}, translate(err)
	}
	return u, nil
}
