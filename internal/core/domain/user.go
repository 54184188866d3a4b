package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes; longer passwords are rejected instead.
	MaxPasswordBytes = 72
)

type User struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"` // bcrypt hashed
	Hobby     []string  `db:"hobby"`
	CreatedAt time.Time `db:"created_at"`
}

// NewUser builds a normalized user. A zero createdAt defaults to now.
func NewUser(firstName, lastName, email, hashedPassword string, hobby []string, createdAt time.Time) *User {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     NormalizeEmail(email),
		Password:  hashedPassword,
		Hobby:     normalizeHobby(hobby),
		CreatedAt: createdAt.UTC(),
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeHobby(hobby []string) []string {
	if hobby == nil {
		return []string{}
	}
	out := make([]string, len(hobby))
	copy(out, hobby)
	return out
}

// Validate checks the stored-document constraints.
func (u *User) Validate() error {
	verr := &ValidationError{}
	if u.FirstName == "" {
		verr.Add("First name is required")
	}
	if u.LastName == "" {
		verr.Add("Last name is required")
	}
	if u.Email == "" {
		verr.Add("Email is required")
	}
	if u.Password == "" {
		verr.Add("Password is required")
	}
	return verr.OrNil()
}

// Apply overwrites the fields set in the patch. The patch must already be
// normalized and, when it carries a password, hashed.
func (u *User) Apply(p UserPatch) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Hobby != nil {
		u.Hobby = normalizeHobby(*p.Hobby)
	}
	if p.CreatedAt != nil {
		u.CreatedAt = p.CreatedAt.UTC()
	}
}

// ValidatePassword enforces the plaintext length rules before hashing.
func ValidatePassword(plain string) error {
	verr := &ValidationError{}
	if plain == "" {
		verr.Add("Password is required")
	} else if utf8.RuneCountInString(plain) < MinPasswordLength {
		verr.Add("Password must be at least 6 characters long")
	} else if len(plain) > MaxPasswordBytes {
		verr.Add("Password must be at most 72 bytes long")
	}
	return verr.OrNil()
}

// UserPatch lists the fields a partial update may change. Nil means untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Hobby     *[]string
	CreatedAt *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Password == nil && p.Hobby == nil && p.CreatedAt == nil
}

// Normalize returns a copy with names trimmed and the email lowercased.
// The password is left as supplied.
func (p UserPatch) Normalize() UserPatch {
	out := p
	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		out.FirstName = &v
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		out.LastName = &v
	}
	if p.Email != nil {
		v := NormalizeEmail(*p.Email)
		out.Email = &v
	}
	if p.Hobby != nil {
		v := normalizeHobby(*p.Hobby)
		out.Hobby = &v
	}
	return out
}

// Validate checks the fields present in a normalized patch. The password,
// if any, is checked as plaintext.
func (p UserPatch) Validate() error {
	verr := &ValidationError{}
	if p.FirstName != nil && *p.FirstName == "" {
		verr.Add("First name is required")
	}
	if p.LastName != nil && *p.LastName == "" {
		verr.Add("Last name is required")
	}
	if p.Email != nil && *p.Email == "" {
		verr.Add("Email is required")
	}
	if p.Password != nil {
		if err := ValidatePassword(*p.Password); err != nil {
			verr.Merge(err)
		}
	}
	return verr.OrNil()
}
