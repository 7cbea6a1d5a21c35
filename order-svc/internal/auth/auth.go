// Package auth is the in-process identity provider: password accounts with a
// fixed role, JWT sessions that can be revoked, and identity change
// notifications for long-lived connections.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid sign-up data")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRoleMismatch       = errors.New("account does not have the requested role")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidToken       = errors.New("invalid or expired session")
)

const (
	usersCollection       = "users"
	clientsCollection     = "clients"
	restaurantsCollection = "restaurants"

	minPasswordLength = 6
)

type Identity struct {
	UserID      string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Role        domain.Role `json:"role"`
	TokenID     string      `json:"-"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"user"`
}

type SignUpInput struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DisplayName string      `json:"displayName"`
	Role        domain.Role `json:"role"`
}

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventProfileUpdated EventType = "profile_updated"
)

type IdentityEvent struct {
	Type     EventType
	Identity Identity
}

// RevocationStore remembers signed-out token ids until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type claims struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"name"`
	Role        domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Gateway struct {
	docs        docstore.Store
	revocations RevocationStore
	secret      []byte
	ttl         time.Duration
	now         func() time.Time

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(IdentityEvent)
}

func NewGateway(docs docstore.Store, revocations RevocationStore, secret string, ttl time.Duration) *Gateway {
	return &Gateway{
		docs:        docs,
		revocations: revocations,
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
		listeners:   make(map[int]func(IdentityEvent)),
	}
}

// SignUp registers an account and creates the matching restaurant or client
// profile under the same id.
func (g *Gateway) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.DisplayName)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: display name", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role", ErrInvalidInput)
	}

	if _, err := g.findByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  name,
		Role:         in.Role,
		PasswordHash: string(hash),
	}
	data, err := docstore.Encode(user, "id", "createdAt")
	if err != nil {
		return nil, err
	}
	if err := g.docs.Set(ctx, usersCollection, user.ID, data); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := g.createProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return g.startSession(identityOf(user))
}

func (g *Gateway) createProfile(ctx context.Context, user domain.User) error {
	switch user.Role {
	case domain.RoleRestaurant:
		data, err := docstore.Encode(domain.Restaurant{
			Name:         user.DisplayName,
			OpeningHours: map[string]string{},
		}, "id")
		if err != nil {
			return err
		}
		return g.docs.Set(ctx, restaurantsCollection, user.ID, data)
	default:
		data, err := docstore.Encode(domain.Client{Email: user.Email, DisplayName: user.DisplayName}, "id")
		if err != nil {
			return err
		}
		return g.docs.Set(ctx, clientsCollection, user.ID, data)
	}
}

// SignIn checks the password and the role the caller is signing in as. A
// role mismatch yields no session.
func (g *Gateway) SignIn(ctx context.Context, email, password string, role domain.Role) (*Session, error) {
	user, err := g.findByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Role != role {
		return nil, ErrRoleMismatch
	}

	return g.startSession(identityOf(*user))
}

// SignOut revokes the session token. Listeners see the signed-out identity
// so connections opened with it can be closed.
func (g *Gateway) SignOut(ctx context.Context, token string) error {
	c, err := g.parse(token)
	if err != nil {
		return err
	}
	ttl := c.ExpiresAt.Time.Sub(g.now())
	if ttl <= 0 {
		return nil
	}
	if err := g.revocations.Revoke(ctx, c.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	g.emit(IdentityEvent{Type: EventSignedOut, Identity: identityOfClaims(c)})
	return nil
}

// Verify resolves a bearer token to the identity it was issued for.
func (g *Gateway) Verify(ctx context.Context, token string) (Identity, error) {
	c, err := g.parse(token)
	if err != nil {
		return Identity{}, err
	}
	revoked, err := g.revocations.IsRevoked(ctx, c.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to check session: %w", err)
	}
	if revoked {
		return Identity{}, ErrInvalidToken
	}
	return identityOfClaims(c), nil
}

func (g *Gateway) Profile(ctx context.Context, userID string) (*domain.User, error) {
	doc, err := g.docs.Get(ctx, usersCollection, userID)
	if err != nil {
		return nil, err
	}
	return decodeUser(doc)
}

func (g *Gateway) UpdateProfile(ctx context.Context, identity Identity, displayName string) (*domain.User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name", ErrInvalidInput)
	}
	if err := g.docs.Update(ctx, usersCollection, identity.UserID, map[string]any{"displayName": name}); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if identity.Role == domain.RoleClient {
		if err := g.docs.Update(ctx, clientsCollection, identity.UserID, map[string]any{"displayName": name}); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("failed to update client profile: %w", err)
		}
	}

	identity.DisplayName = name
	g.emit(IdentityEvent{Type: EventProfileUpdated, Identity: identity})
	return g.Profile(ctx, identity.UserID)
}

// OnIdentityChange registers fn for sign-in, sign-out and profile events.
// The returned func unregisters it.
func (g *Gateway) OnIdentityChange(fn func(IdentityEvent)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gateway) emit(event IdentityEvent) {
	g.mu.Lock()
	listeners := make([]func(IdentityEvent), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

func (g *Gateway) startSession(identity Identity) (*Session, error) {
	now := g.now()
	expires := now.Add(g.ttl)
	identity.TokenID = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        identity.TokenID,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	g.emit(IdentityEvent{Type: EventSignedIn, Identity: identity})
	return &Session{Token: signed, ExpiresAt: expires, Identity: identity}, nil
}

func (g *Gateway) parse(token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" || c.ID == "" || c.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (g *Gateway) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	docs, err := g.docs.Query(ctx, usersCollection, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("email", email)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return decodeUser(docs[0])
}

func decodeUser(doc docstore.Document) (*domain.User, error) {
	var user domain.User
	if err := docstore.Decode(doc, &user); err != nil {
		return nil, err
	}
	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	return &user, nil
}

func identityOf(user domain.User) Identity {
	return Identity{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

func identityOfClaims(c *claims) Identity {
	return Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        c.Role,
		TokenID:     c.ID,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type contextKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}
