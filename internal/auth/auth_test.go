package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/memstore"
	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapBlocklist stands in for the redis-backed one.
type mapBlocklist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMapBlocklist() *mapBlocklist {
	return &mapBlocklist{revoked: map[string]bool{}}
}

func (b *mapBlocklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = true
	return nil
}

func (b *mapBlocklist) Revoked(ctx context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revoked[jti], nil
}

func newService() *Service {
	return &Service{
		Store:     memstore.New(),
		Secret:    []byte("test-secret"),
		TokenTTL:  time.Hour,
		Blocklist: newMapBlocklist(),
	}
}

func TestRegisterLoginVerify(t *testing.T) {
	s := newService()
	ctx := context.Background()

	tok, err := s.Register(ctx, RegisterInput{
		Name: "Arief", Email: "arief@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)

	userID, err := s.Verify(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	u, err := s.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "arief@example.com", u.Email)
	assert.NotEqual(t, "hunter2hunter2", u.PasswordHash, "stored hashed, never plaintext")

	t.Run("login with right password", func(t *testing.T) {
		tok2, err := s.Login(ctx, Credentials{Email: "arief@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)
		id2, err := s.Verify(ctx, tok2.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID, id2)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, Credentials{Email: "arief@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, orders.ErrUnauthenticated)
	})

	t.Run("login with unknown email", func(t *testing.T) {
		_, err := s.Login(ctx, Credentials{Email: "ghost@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, orders.ErrUnauthenticated)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.Register(ctx, RegisterInput{
			Name: "Again", Email: "arief@example.com", Password: "hunter2hunter2",
		})
		assert.ErrorIs(t, err, orders.ErrValidation)
	})
}

func TestRegisterValidation(t *testing.T) {
	s := newService()
	for name, in := range map[string]RegisterInput{
		"missing name":   {Email: "a@b.c", Password: "longenough"},
		"missing email":  {Name: "A", Password: "longenough"},
		"short password": {Name: "A", Email: "a@b.c", Password: "short"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Register(context.Background(), in)
			assert.ErrorIs(t, err, orders.ErrValidation)
		})
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, orders.ErrUnauthenticated)

	other := &Service{Secret: []byte("other-secret"), TokenTTL: time.Hour}
	tok, err := other.issue("u1")
	require.NoError(t, err)
	_, err = s.Verify(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, orders.ErrUnauthenticated, "wrong signing key")

	expired := &Service{Secret: s.Secret, TokenTTL: -time.Minute}
	tok, err = expired.issue("u1")
	require.NoError(t, err)
	_, err = s.Verify(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, orders.ErrUnauthenticated, "expired token")
}

func TestRefresh(t *testing.T) {
	s := newService()
	ctx := context.Background()

	tok, err := s.Register(ctx, RegisterInput{
		Name: "Arief", Email: "arief@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	userID, err := s.Verify(ctx, tok.AccessToken)
	require.NoError(t, err)

	fresh, err := s.Refresh(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, tok.AccessToken, fresh.AccessToken)

	id2, err := s.Verify(ctx, fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, id2, "new token belongs to the same user")

	_, err = s.Verify(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, orders.ErrUnauthenticated, "rotated-out token is dead")

	t.Run("refreshing a revoked token is refused", func(t *testing.T) {
		_, err := s.Refresh(ctx, tok.AccessToken)
		assert.ErrorIs(t, err, orders.ErrUnauthenticated)
	})
}

func TestLogout(t *testing.T) {
	s := newService()
	ctx := context.Background()

	tok, err := s.Register(ctx, RegisterInput{
		Name: "Arief", Email: "arief@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, tok.AccessToken))
	_, err = s.Verify(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, orders.ErrUnauthenticated)

	t.Run("second logout is refused", func(t *testing.T) {
		assert.ErrorIs(t, s.Logout(ctx, tok.AccessToken), orders.ErrUnauthenticated)
	})

	t.Run("login again issues a working token", func(t *testing.T) {
		tok2, err := s.Login(ctx, Credentials{Email: "arief@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)
		_, err = s.Verify(ctx, tok2.AccessToken)
		assert.NoError(t, err)
	})
}
