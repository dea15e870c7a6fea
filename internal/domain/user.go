package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmail is returned when an email is already taken by another user.
var ErrDuplicateEmail = errors.New("email already in use")

// Application roles. Stored as a text[] column on users and invitations;
// tokens carry them verbatim in the claims role set.
const (
	RoleAdmin         = "ADMIN"
	RoleInitiator     = "INITIATOR"
	RoleExpert        = "EXPERT"
	RoleProjectOffice = "PROJECT_OFFICE"
	RoleMember        = "MEMBER"
	RoleTeamLeader    = "TEAM_LEADER"
	RoleTeamOwner     = "TEAM_OWNER"
	RoleTeacher       = "TEACHER"
)

// ValidRole reports whether code is one of the known application roles.
func ValidRole(code string) bool {
	switch code {
	case RoleAdmin, RoleInitiator, RoleExpert, RoleProjectOffice,
		RoleMember, RoleTeamLeader, RoleTeamOwner, RoleTeacher:
		return true
	}
	return false
}

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	StudyGroup   string    `json:"study_group,omitempty"`
	Telephone    string    `json:"telephone,omitempty"`
	Roles        []string  `json:"roles"`
	PasswordHash string    `json:"-"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileUpdate carries the fields a user may change on their own profile.
type ProfileUpdate struct {
	FirstName  string
	LastName   string
	StudyGroup string
	Telephone  string
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// List returns one page of non-deleted users, newest first, plus the total count.
	List(ctx context.Context, p PaginationParams) ([]*User, int, error)
	// ListEmails returns which of the given emails belong to existing users.
	ListEmails(ctx context.Context, emails []string) ([]string, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error
	SetDeleted(ctx context.Context, id string, deleted bool) error
}

// UserService defines the business logic for user management and the
// verification-code flows (password reset, email change).
type UserService interface {
	List(ctx context.Context, p PaginationParams) ([]*User, int, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error

	RequestPasswordReset(ctx context.Context, email string) (codeID string, err error)
	ConfirmPasswordReset(ctx context.Context, codeID, code, newPassword string) error
	RequestEmailChange(ctx context.Context, claims *Claims, newEmail string) (codeID string, err error)
	ConfirmEmailChange(ctx context.Context, claims *Claims, codeID, code string) error
}
