package backtest

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Auth form messages
const (
	MsgUsernameRequired = "Username is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Email is invalid"
	MsgPasswordRequired = "Password is required"
	MsgPasswordShort    = "Password must be at least 6 characters"
)

// MinPasswordLength applies to new accounts only.
const MinPasswordLength = 6

// LoginForm collects sign-in credentials.
type LoginForm struct {
	Email    string
	Password string
	Errors   map[string]string
}

// Validate fills Errors and reports whether the form may be sent.
func (f *LoginForm) Validate() bool {
	f.Errors = map[string]string{}
	validateEmail(f.Errors, f.Email)
	if f.Password == "" {
		f.Errors["password"] = MsgPasswordRequired
	}
	return len(f.Errors) == 0
}

// SignupForm collects new account details.
type SignupForm struct {
	Username string
	Email    string
	Password string
	Errors   map[string]string
}

// Validate fills Errors and reports whether the form may be sent.
func (f *SignupForm) Validate() bool {
	f.Errors = map[string]string{}
	if strings.TrimSpace(f.Username) == "" {
		f.Errors["username"] = MsgUsernameRequired
	}
	validateEmail(f.Errors, f.Email)
	switch {
	case f.Password == "":
		f.Errors["password"] = MsgPasswordRequired
	case len(f.Password) < MinPasswordLength:
		f.Errors["password"] = MsgPasswordShort
	}
	return len(f.Errors) == 0
}

func validateEmail(errs map[string]string, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = MsgEmailRequired
	case !emailPattern.MatchString(email):
		errs["email"] = MsgEmailInvalid
	}
}
