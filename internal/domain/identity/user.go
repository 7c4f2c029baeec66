package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/gradeflow/backend/internal/domain/shared"
)

// Role represents what a user is allowed to do with grading work
type Role string

const (
	RoleProfessor Role = "professor" // Owns sections, reviews and approves grading
	RoleTA        Role = "ta"        // Runs grading batches on behalf of a professor
)

// IsValid checks if the role is a known value
func (r Role) IsValid() bool {
	switch r {
	case RoleProfessor, RoleTA:
		return true
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User represents a grader or reviewer. Users are provisioned on first use
// by email; there are no local credentials.
type User struct {
	shared.BaseAggregateRoot
	Email string
	Name  string
	Role  Role
}

// NewUser creates a new user with required fields
func NewUser(email, name string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleProfessor
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be professor or ta")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              strings.TrimSpace(name),
		Role:              role,
	}

	user.AddDomainEvent(NewUserCreatedEvent(user))

	return user, nil
}

// Rename changes the user's display name
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}

	u.Name = name
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// ChangeRole switches the user between professor and ta
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Role must be professor or ta")
	}
	if u.Role == role {
		return nil
	}

	u.Role = role
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// DisplayName returns the name, falling back to the email local part
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 254 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 254 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Email format is invalid")
	}
	return nil
}
