package forms

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"pulse/internal/models"
)

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

var loginMessages = map[string]string{
	"password.min": "Password must be at least 6 characters",
}

func ParseLogin(v url.Values) LoginForm {
	return LoginForm{
		Email:    strings.TrimSpace(v.Get("email")),
		Password: v.Get("password"),
	}
}

func (f *LoginForm) Validate() Errors { return check(f, loginMessages) }

func (f *LoginForm) Credentials() models.Credentials {
	return models.Credentials{Email: f.Email, Password: f.Password}
}

type SignupForm struct {
	Email                string `form:"email" validate:"required,email"`
	Password             string `form:"password" validate:"required,min=8"`
	PasswordVerification string `form:"passwordVerification" validate:"required,eqfield=Password"`
	Organizer            bool   `form:"organizer"`
}

var signupMessages = map[string]string{
	"password.min":                 "Password must be at least 8 characters",
	"passwordVerification.eqfield": "Passwords must match",
}

func ParseSignup(v url.Values) SignupForm {
	return SignupForm{
		Email:                strings.TrimSpace(v.Get("email")),
		Password:             v.Get("password"),
		PasswordVerification: v.Get("passwordVerification"),
		Organizer:            v.Get("organizer") != "",
	}
}

func (f *SignupForm) Validate() Errors { return check(f, signupMessages) }

func (f *SignupForm) Credentials() models.Credentials {
	return models.Credentials{Email: f.Email, Password: f.Password}
}

type ForgotPasswordForm struct {
	Email string `form:"email" validate:"required,email"`
}

func ParseForgotPassword(v url.Values) ForgotPasswordForm {
	return ForgotPasswordForm{Email: strings.TrimSpace(v.Get("email"))}
}

func (f *ForgotPasswordForm) Validate() Errors { return check(f, nil) }

type ResetPasswordForm struct {
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

var resetMessages = map[string]string{
	"confirmPassword.eqfield": "Passwords must match",
}

func ParseResetPassword(v url.Values) ResetPasswordForm {
	return ResetPasswordForm{
		Password:        v.Get("password"),
		ConfirmPassword: v.Get("confirmPassword"),
	}
}

func (f *ResetPasswordForm) Validate() Errors { return check(f, resetMessages) }

// ErrInvalidToken is returned for validation links that do not decode.
var ErrInvalidToken = errors.New("invalid validation token")

// ValidationToken is the payload of the ?validationToken= link parameter
// sent by e-mail: base64 of a JSON object.
type ValidationToken struct {
	UserID models.ID `json:"userId"`
	Email  string    `json:"email"`
	Code   string    `json:"code"`
}

// DecodeValidationToken accepts standard and URL-safe base64, padded or not.
func DecodeValidationToken(raw string) (ValidationToken, error) {
	var tok ValidationToken
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tok, ErrInvalidToken
	}

	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err = enc.DecodeString(raw); err == nil {
			break
		}
	}
	if err != nil {
		return tok, ErrInvalidToken
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return tok, ErrInvalidToken
	}
	if tok.Code == "" {
		return tok, ErrInvalidToken
	}
	return tok, nil
}
