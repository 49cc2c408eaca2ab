package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"booknest/internal/config"
	"booknest/internal/database/users"
	"booknest/internal/entities"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	byEmail map[string]*entities.User
	seq     int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*entities.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, name, email, passwordHash string) (*entities.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return nil, users.ErrEmailTaken
	}
	f.seq++
	user := &entities.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	for _, user := range f.byEmail {
		if user.ID.Hex() == id {
			return user, nil
		}
	}
	return nil, users.ErrNotFound
}

func setupService(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewService(repo, config.Auth{BcryptCost: bcrypt.MinCost})
	return svc, repo
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and strips password", func(t *testing.T) {
		svc, repo := setupService(t)

		user, err := svc.Register(ctx, "Alice", "Alice@Example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email) // normalized
		assert.NotEmpty(t, user.ID)

		stored := repo.byEmail["alice@example.com"]
		require.NotNil(t, stored)
		assert.NotEqual(t, "secret123", stored.Password)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc, _ := setupService(t)

		cases := []struct{ name, email, password string }{
			{"", "alice@example.com", "secret123"},
			{"Alice", "", "secret123"},
			{"Alice", "alice@example.com", ""},
			{"   ", "alice@example.com", "secret123"},
		}
		for i, tc := range cases {
			t.Run(strconv.Itoa(i), func(t *testing.T) {
				_, err := svc.Register(ctx, tc.name, tc.email, tc.password)
				assert.ErrorIs(t, err, ErrMissingFields)
			})
		}
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.Register(ctx, "Alice", "not-an-email", "secret123")
		assert.ErrorIs(t, err, ErrEmailInvalid)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.Register(ctx, "Alice", "alice@example.com", "abc")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Imposter", "alice@example.com", "different1")
		assert.ErrorIs(t, err, users.ErrEmailTaken)
	})

	t.Run("duplicate check is case-insensitive", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Alice", "ALICE@EXAMPLE.COM", "secret123")
		assert.ErrorIs(t, err, users.ErrEmailTaken)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		user, err := svc.Authenticate(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("wrong password returns nil user", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		user, err := svc.Authenticate(ctx, "alice@example.com", "wrongpass")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("unknown email returns nil user", func(t *testing.T) {
		svc, _ := setupService(t)

		user, err := svc.Authenticate(ctx, "nobody@example.com", "secret123")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("oauth-only account cannot use password login", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.LinkOAuthIdentity(ctx, "alice@example.com", "Alice")
		require.NoError(t, err)

		user, err := svc.Authenticate(ctx, "alice@example.com", "anything1")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestService_LinkOAuthIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("first sign-in creates passwordless account", func(t *testing.T) {
		svc, repo := setupService(t)

		user, err := svc.LinkOAuthIdentity(ctx, "Alice@Example.com", "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Empty(t, repo.byEmail["alice@example.com"].Password)
	})

	t.Run("later sign-ins reuse the existing account", func(t *testing.T) {
		svc, _ := setupService(t)

		first, err := svc.LinkOAuthIdentity(ctx, "alice@example.com", "Alice")
		require.NoError(t, err)

		second, err := svc.LinkOAuthIdentity(ctx, "alice@example.com", "Alice Cooper")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Alice", second.Name) // original name kept
	})

	t.Run("links to password account with same email", func(t *testing.T) {
		svc, _ := setupService(t)
		registered, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		linked, err := svc.LinkOAuthIdentity(ctx, "alice@example.com", "Alice")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, linked.ID.Hex())
	})

	t.Run("falls back to email when name is empty", func(t *testing.T) {
		svc, _ := setupService(t)

		user, err := svc.LinkOAuthIdentity(ctx, "alice@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Name)
	})
}
