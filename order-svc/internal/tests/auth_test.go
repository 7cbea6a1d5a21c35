package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) (*auth.Gateway, *docstore.MemoryStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	docs := docstore.NewMemoryStore()
	return auth.NewGateway(docs, storage.NewRedisRevocations(client), "test-secret", time.Hour), docs
}

func TestGateway_SignUpCreatesProfile(t *testing.T) {
	ctx := context.Background()
	gateway, docs := newGateway(t)

	session, err := gateway.SignUp(ctx, auth.SignUpInput{
		Email:       " Chef@Example.com ",
		Password:    "secret123",
		DisplayName: "Luigi's",
		Role:        domain.RoleRestaurant,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "chef@example.com", session.Identity.Email)

	rest, err := docs.Get(ctx, "restaurants", session.Identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Luigi's", rest.Data["name"])

	user, err := gateway.Profile(ctx, session.Identity.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	_, err = gateway.SignUp(ctx, auth.SignUpInput{Email: "chef@example.com", Password: "another1", DisplayName: "X", Role: domain.RoleClient})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	client, err := gateway.SignUp(ctx, auth.SignUpInput{Email: "ada@example.com", Password: "secret123", DisplayName: "Ada", Role: domain.RoleClient})
	require.NoError(t, err)
	_, err = docs.Get(ctx, "clients", client.Identity.UserID)
	assert.NoError(t, err)
}

func TestGateway_SignUpValidation(t *testing.T) {
	ctx := context.Background()
	gateway, _ := newGateway(t)

	tests := []struct {
		name  string
		input auth.SignUpInput
	}{
		{name: "bad_email", input: auth.SignUpInput{Email: "nope", Password: "secret123", DisplayName: "A", Role: domain.RoleClient}},
		{name: "short_password", input: auth.SignUpInput{Email: "a@b.co", Password: "123", DisplayName: "A", Role: domain.RoleClient}},
		{name: "blank_name", input: auth.SignUpInput{Email: "a@b.co", Password: "secret123", DisplayName: " ", Role: domain.RoleClient}},
		{name: "unknown_role", input: auth.SignUpInput{Email: "a@b.co", Password: "secret123", DisplayName: "A", Role: "admin"}},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := gateway.SignUp(ctx, testCase.input)
			assert.ErrorIs(t, err, auth.ErrInvalidInput)
		})
	}
}

func TestGateway_SignIn(t *testing.T) {
	ctx := context.Background()
	gateway, _ := newGateway(t)
	_, err := gateway.SignUp(ctx, auth.SignUpInput{Email: "chef@example.com", Password: "secret123", DisplayName: "Luigi's", Role: domain.RoleRestaurant})
	require.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		password      string
		role          domain.Role
		expectedError error
	}{
		{name: "success", email: "CHEF@example.com", password: "secret123", role: domain.RoleRestaurant},
		{name: "wrong_password", email: "chef@example.com", password: "wrong", role: domain.RoleRestaurant, expectedError: auth.ErrInvalidCredentials},
		{name: "unknown_email", email: "ghost@example.com", password: "secret123", role: domain.RoleRestaurant, expectedError: auth.ErrInvalidCredentials},
		{name: "client_against_restaurant_account", email: "chef@example.com", password: "secret123", role: domain.RoleClient, expectedError: auth.ErrRoleMismatch},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			session, err := gateway.SignIn(ctx, testCase.email, testCase.password, testCase.role)
			if testCase.expectedError != nil {
				assert.ErrorIs(t, err, testCase.expectedError)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			identity, err := gateway.Verify(ctx, session.Token)
			require.NoError(t, err)
			assert.Equal(t, domain.RoleRestaurant, identity.Role)
		})
	}
}

func TestGateway_SignOutRevokesAndNotifies(t *testing.T) {
	ctx := context.Background()
	gateway, _ := newGateway(t)
	session, err := gateway.SignUp(ctx, auth.SignUpInput{Email: "ada@example.com", Password: "secret123", DisplayName: "Ada", Role: domain.RoleClient})
	require.NoError(t, err)

	var mu sync.Mutex
	var events []auth.IdentityEvent
	stop := gateway.OnIdentityChange(func(e auth.IdentityEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	require.NoError(t, gateway.SignOut(ctx, session.Token))
	_, err = gateway.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, auth.EventSignedOut, events[0].Type)
	assert.Equal(t, session.Identity.TokenID, events[0].Identity.TokenID)
	mu.Unlock()

	stop()
	stop()
	second, err := gateway.SignIn(ctx, "ada@example.com", "secret123", domain.RoleClient)
	require.NoError(t, err)
	require.NoError(t, gateway.SignOut(ctx, second.Token))

	mu.Lock()
	assert.Len(t, events, 1)
	mu.Unlock()
}

func TestGateway_VerifyRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	gateway, _ := newGateway(t)
	other, _ := newGateway(t)

	session, err := other.SignUp(ctx, auth.SignUpInput{Email: "ada@example.com", Password: "secret123", DisplayName: "Ada", Role: domain.RoleClient})
	require.NoError(t, err)

	_, err = gateway.Verify(ctx, session.Token+"x")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = gateway.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestGateway_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	gateway, docs := newGateway(t)
	session, err := gateway.SignUp(ctx, auth.SignUpInput{Email: "ada@example.com", Password: "secret123", DisplayName: "Ada", Role: domain.RoleClient})
	require.NoError(t, err)

	user, err := gateway.UpdateProfile(ctx, session.Identity, "  Ada L. ")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", user.DisplayName)

	client, err := docs.Get(ctx, "clients", session.Identity.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", client.Data["displayName"])

	_, err = gateway.UpdateProfile(ctx, session.Identity, " ")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}
