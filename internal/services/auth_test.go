package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideahub/internal/domain"
)

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int

	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byEmail[u.Email]; taken {
		return domain.ErrDuplicateEmail
	}
	u.CreatedAt = time.Now()
	f.add(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, p domain.PaginationParams) ([]*domain.User, int, error) {
	var users []*domain.User
	for _, u := range f.byID {
		if !u.IsDeleted {
			users = append(users, u)
		}
	}
	return users, len(users), nil
}

func (f *fakeUserRepo) ListEmails(ctx context.Context, emails []string) ([]string, error) {
	var found []string
	for _, email := range emails {
		if _, ok := f.byEmail[email]; ok {
			found = append(found, email)
		}
	}
	return found, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) error {
	u, ok := f.byID[id]
	if !ok || u.IsDeleted {
		return domain.ErrNotFound
	}
	u.FirstName, u.LastName = upd.FirstName, upd.LastName
	u.StudyGroup, u.Telephone = upd.StudyGroup, upd.Telephone
	return nil
}

func (f *fakeUserRepo) SetDeleted(ctx context.Context, id string, deleted bool) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsDeleted = deleted
	return nil
}

// fakeInvitationRepo implements domain.InvitationRepository for tests.
type fakeInvitationRepo struct {
	active map[string]*domain.Invitation
	nextID int

	expired  []string
	extended map[string]time.Time

	createErr error
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{
		active:   make(map[string]*domain.Invitation),
		extended: make(map[string]time.Time),
	}
}

func (f *fakeInvitationRepo) add(inv *domain.Invitation) *domain.Invitation {
	if inv.ID == "" {
		f.nextID++
		inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	}
	f.active[inv.ID] = inv
	return inv
}

func (f *fakeInvitationRepo) ListActiveEmails(ctx context.Context, emails []string) ([]string, error) {
	byEmail := make(map[string]struct{})
	for _, inv := range f.active {
		byEmail[inv.Email] = struct{}{}
	}
	var found []string
	for _, email := range emails {
		if _, ok := byEmail[email]; ok {
			found = append(found, email)
		}
	}
	return found, nil
}

func (f *fakeInvitationRepo) CreateBatch(ctx context.Context, invs []*domain.Invitation, publish func(ctx context.Context, created []*domain.Invitation) error) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, inv := range invs {
		f.nextID++
		inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	}
	if err := publish(ctx, invs); err != nil {
		// Rolled back: nothing becomes visible.
		return err
	}
	for _, inv := range invs {
		f.active[inv.ID] = inv
	}
	return nil
}

func (f *fakeInvitationRepo) GetActive(ctx context.Context, id string) (*domain.Invitation, error) {
	if inv, ok := f.active[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	inv, ok := f.active[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.ExpiresAt = until
	f.extended[id] = until
	return nil
}

func (f *fakeInvitationRepo) Expire(ctx context.Context, id string) error {
	if _, ok := f.active[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.active, id)
	f.expired = append(f.expired, id)
	return nil
}

// fakeCodec implements domain.TokenCodec with transparent "kind:subject" tokens.
type fakeCodec struct {
	issueErr error
}

func (f *fakeCodec) Issue(c *domain.Claims, kind domain.TokenKind, ttl time.Duration) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return string(kind) + ":" + c.Subject, nil
}

func (f *fakeCodec) Verify(token string) (*domain.Claims, error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return nil, domain.ErrInvalidToken
	}
	kind := domain.TokenKind(parts[0])
	if kind != domain.TokenKindAccess && kind != domain.TokenKindRefresh {
		return nil, domain.ErrInvalidToken
	}
	return &domain.Claims{
		Subject:   parts[1],
		Email:     "u@example.com",
		FirstName: "Alice",
		LastName:  "Ivanova",
		Roles:     []string{domain.RoleInitiator},
		Kind:      kind,
	}, nil
}

// fakeHasher implements domain.PasswordHasher with transparent "hash:" prefixes.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hash:" + plain, nil }
func (fakeHasher) Verify(encoded, plain string) bool { return encoded == "hash:"+plain }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newAuthService(users *fakeUserRepo, invs *fakeInvitationRepo) domain.AuthService {
	return NewAuthService(users, invs, &fakeCodec{}, fakeHasher{}, 15*time.Minute, 7*24*time.Hour, quietLogger())
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	users.add(&domain.User{
		Email:        "alice@example.com",
		PasswordHash: "hash:correct-password",
		FirstName:    "Alice",
		Roles:        []string{domain.RoleAdmin},
	})
	users.add(&domain.User{
		Email:        "gone@example.com",
		PasswordHash: "hash:correct-password",
		IsDeleted:    true,
	})

	svc := newAuthService(users, newFakeInvitationRepo())

	t.Run("success issues access and refresh pair", func(t *testing.T) {
		user, pair, err := svc.Login(ctx, "Alice@Example.com", "correct-password")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "access:"+user.ID, pair.Access)
		assert.Equal(t, "refresh:"+user.ID, pair.Refresh)
	})

	t.Run("failures are uniform", func(t *testing.T) {
		_, _, wrongPassword := svc.Login(ctx, "alice@example.com", "nope")
		_, _, unknownEmail := svc.Login(ctx, "who@example.com", "correct-password")
		_, _, deletedUser := svc.Login(ctx, "gone@example.com", "correct-password")

		// An attacker probing the endpoint cannot tell the three apart.
		assert.ErrorIs(t, wrongPassword, domain.ErrUnauthenticated)
		assert.ErrorIs(t, unknownEmail, domain.ErrUnauthenticated)
		assert.ErrorIs(t, deletedUser, domain.ErrUnauthenticated)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newFakeUserRepo(), newFakeInvitationRepo())

	t.Run("refresh token re-issues a pair with the same subject", func(t *testing.T) {
		claims, pair, err := svc.Refresh(ctx, "refresh:user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "access:user-1", pair.Access)
		assert.Equal(t, "refresh:user-1", pair.Refresh)
	})

	t.Run("access token is rejected where refresh is required", func(t *testing.T) {
		_, _, err := svc.Refresh(ctx, "access:user-1")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, _, err := svc.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("redeems the invitation and expires it", func(t *testing.T) {
		users := newFakeUserRepo()
		invs := newFakeInvitationRepo()
		invs.add(&domain.Invitation{
			Email:     "new@example.com",
			Roles:     []string{domain.RoleExpert},
			ExpiresAt: time.Now().Add(time.Hour),
		})
		svc := newAuthService(users, invs)

		user, err := svc.Register(ctx, "inv-1", domain.Registration{
			FirstName: "Nora",
			LastName:  "Petrova",
			Password:  "long-enough-pw",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email, "email comes from the invitation")
		assert.Equal(t, []string{domain.RoleExpert}, user.Roles, "roles come from the invitation")
		assert.Equal(t, "hash:long-enough-pw", user.PasswordHash)
		assert.Equal(t, []string{"inv-1"}, invs.expired, "redeemed invitation is superseded")
	})

	t.Run("expired or unknown invitation", func(t *testing.T) {
		svc := newAuthService(newFakeUserRepo(), newFakeInvitationRepo())
		_, err := svc.Register(ctx, "inv-404", domain.Registration{Password: "long-enough-pw"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		users := newFakeUserRepo()
		users.add(&domain.User{Email: "new@example.com"})
		invs := newFakeInvitationRepo()
		invs.add(&domain.Invitation{Email: "new@example.com", ExpiresAt: time.Now().Add(time.Hour)})
		svc := newAuthService(users, invs)

		_, err := svc.Register(ctx, "inv-1", domain.Registration{Password: "long-enough-pw"})
		assert.True(t, domain.IsConflict(err), "got %v", err)
	})

	t.Run("short password conflicts before touching the invitation", func(t *testing.T) {
		invs := newFakeInvitationRepo()
		svc := newAuthService(newFakeUserRepo(), invs)
		_, err := svc.Register(ctx, "inv-1", domain.Registration{Password: "short"})
		assert.True(t, domain.IsConflict(err), "got %v", err)
		assert.Empty(t, invs.expired)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when absent", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newAuthService(users, newFakeInvitationRepo())
		require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-pw"))

		admin, err := users.GetByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{domain.RoleAdmin, domain.RoleInitiator}, admin.Roles)
	})

	t.Run("idempotent when present", func(t *testing.T) {
		users := newFakeUserRepo()
		existing := users.add(&domain.User{Email: "admin@example.com", PasswordHash: "hash:old"})
		svc := newAuthService(users, newFakeInvitationRepo())
		require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "new-pw"))

		admin, err := users.GetByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, existing.PasswordHash, admin.PasswordHash, "existing account untouched")
	})

	t.Run("repository errors surface", func(t *testing.T) {
		users := newFakeUserRepo()
		users.getErr = errors.New("db down")
		svc := newAuthService(users, newFakeInvitationRepo())
		assert.Error(t, svc.EnsureAdmin(ctx, "admin@example.com", "pw"))
	})
}
