package domain

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// User is a user record as returned by the API.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// EmptyUser is the unauthenticated sentinel. Sessions hold it instead of nil.
var EmptyUser = User{}

// IsEmpty reports whether u is the EmptyUser sentinel.
func (u User) IsEmpty() bool {
	return u == EmptyUser
}

// IsNew reports whether u has not been persisted yet.
func (u User) IsNew() bool {
	return u.ID == 0
}

// UserPayload is the write-only body for signup, create and update.
// Password fields never flow back into a session user.
type UserPayload struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

// Minimum password length accepted by the API.
const MinPasswordLen = 8

// Validate checks a payload for create or signup, where a password is mandatory.
func (p UserPayload) Validate() error {
	return p.validate(true)
}

// ValidateUpdate checks a payload for update; an empty password keeps the current one.
func (p UserPayload) ValidateUpdate() error {
	return p.validate(p.Password != "" || p.PasswordConfirmation != "")
}

func (p UserPayload) validate(withPassword bool) error {
	rules := []*validation.FieldRules{
		validation.Field(&p.Name, validation.Required, validation.Length(1, 55)),
		validation.Field(&p.Email, validation.Required, is.Email),
	}
	if withPassword {
		rules = append(rules,
			validation.Field(&p.Password, validation.Required, validation.Length(MinPasswordLen, 0)),
			validation.Field(&p.PasswordConfirmation, validation.Required, validation.By(equals(p.Password))),
		)
	}
	return validation.ValidateStruct(&p, rules...)
}

// Credentials is the login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// PageMeta is the pagination block of a list response.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// UserPage is the list response envelope.
type UserPage struct {
	Data []User   `json:"data"`
	Meta PageMeta `json:"meta"`
}

// HasNext reports whether a later page exists.
func (p UserPage) HasNext() bool {
	return p.Meta.CurrentPage < p.Meta.LastPage
}

// HasPrev reports whether an earlier page exists.
func (p UserPage) HasPrev() bool {
	return p.Meta.CurrentPage > 1
}

// FieldErrors flattens a validation result into the field-keyed message map the API
// uses for 422 responses. Returns nil when err carries no field errors.
func FieldErrors(err error) map[string][]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for field, ferr := range verrs {
		if ferr == nil {
			continue
		}
		out[field] = append(out[field], ferr.Error())
	}
	return out
}

func equals(want string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New("must match password")
		}
		return nil
	}
}
