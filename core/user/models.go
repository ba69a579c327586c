package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasa/backend/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)

var (
	AllRoles = []string{RoleStudent, RoleTeacher, RoleParent, RoleAdmin}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Parent", Value: RoleParent},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is a single identity for all human actors, discriminated by Role.
// Credential fields never serialize; the JSON form is the only
// representation allowed to cross the API boundary.
type User struct {
	ID                     string      `json:"id"`
	FirstName              string      `json:"first_name"`
	LastName               string      `json:"last_name"`
	Email                  string      `json:"email"`
	PasswordHash           []byte      `json:"-"`
	Role                   string      `json:"role"`
	Phone                  null.String `json:"phone"`
	DateOfBirth            null.Time   `json:"date_of_birth"`
	Address                null.String `json:"address"`
	ProfilePhoto           null.String `json:"profile_photo"`
	IsActive               bool        `json:"is_active"`
	IsEmailVerified        bool        `json:"is_email_verified"`
	EmailVerificationToken null.String `json:"-"`
	PasswordResetToken     null.String `json:"-"`
	PasswordResetExpires   null.Time   `json:"password_reset_expires"`
	LastLogin              null.Time   `json:"last_login"`
	CreatedAt              time.Time   `json:"created_at"` // UTC
	UpdatedAt              time.Time   `json:"updated_at"` // UTC
}

func (u *User) Name() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

// SetPassword replaces the stored credential with a salted bcrypt digest of
// pwd. The cost factor defaults to the configured one. The plaintext is
// never retained.
func (u *User) SetPassword(pwd string, cost ...int) error {
	c := core.Conf.Security.BcryptCost
	if len(cost) > 0 {
		c = cost[0]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), c)
	if err != nil {
		return core.NewHashingError(err)
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword verifies pwd against the stored digest.
// A mismatch yields ErrInvalidPassword; a malformed digest yields a hashing error.
func (u *User) CheckPassword(pwd string) error {
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return ErrInvalidPassword
		}
		return core.NewHashingError(err)
	}
	return nil
}

func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsParent() bool  { return u.Role == RoleParent }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }

// NewUser is the payload for creating a User.
type NewUser struct {
	FirstName   string      `json:"first_name" validate:"required,min=2,max=100"`
	LastName    string      `json:"last_name" validate:"required,min=2,max=100"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required"`
	Role        string      `json:"role" validate:"required,userrole"`
	Phone       null.String `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth null.Time   `json:"date_of_birth"`
	Address     null.String `json:"address"`
}

// UpdateUser is the payload for updating a User; zero-valued fields are
// left untouched. Password is re-hashed only when provided.
type UpdateUser struct {
	FirstName   string      `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName    string      `json:"last_name" validate:"omitempty,min=2,max=100"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Password    string      `json:"password"`
	Role        string      `json:"role" validate:"omitempty,userrole"`
	Phone       null.String `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth null.Time   `json:"date_of_birth"`
	Address     null.String `json:"address"`
	IsActive    *bool       `json:"is_active"`
}

// QueryFilter filters user queries; zero fields are ignored.
type QueryFilter struct {
	Search   string `json:"search"` // matches name or email
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`

	CreatedFrom time.Time `json:"created_from"`
	CreatedTo   time.Time `json:"created_to"`
}
