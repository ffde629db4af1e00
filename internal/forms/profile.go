package forms

import (
	"net/url"
	"strings"

	"pulse/internal/models"
)

// ProfileForm edits the signed-in user. Empty new password means keep.
type ProfileForm struct {
	FirstName          string `form:"firstName" validate:"min=2"`
	LastName           string `form:"lastName" validate:"min=2"`
	NewPassword        string `form:"newPassword" validate:"omitempty,min=8"`
	ConfirmNewPassword string `form:"confirmNewPassword" validate:"eqfield=NewPassword"`
}

var profileMessages = map[string]string{
	"firstName.min":              "First name must be at least 2 characters.",
	"lastName.min":               "Last name must be at least 2 characters.",
	"newPassword.min":            "New password must be at least 8 characters.",
	"confirmNewPassword.eqfield": "New passwords do not match",
}

func ParseProfile(v url.Values) ProfileForm {
	return ProfileForm{
		FirstName:          strings.TrimSpace(v.Get("firstName")),
		LastName:           strings.TrimSpace(v.Get("lastName")),
		NewPassword:        v.Get("newPassword"),
		ConfirmNewPassword: v.Get("confirmNewPassword"),
	}
}

func ProfileFormFrom(u *models.User) ProfileForm {
	return ProfileForm{FirstName: u.FirstName, LastName: u.LastName}
}

func (f *ProfileForm) Validate() Errors { return check(f, profileMessages) }

// Delta returns only the fields that differ from current, plus the new
// password when one was entered. An empty map means nothing changed.
func (f *ProfileForm) Delta(current *models.User) map[string]string {
	out := make(map[string]string)
	if f.FirstName != current.FirstName {
		out["firstName"] = f.FirstName
	}
	if f.LastName != current.LastName {
		out["lastName"] = f.LastName
	}
	if f.NewPassword != "" {
		out["password"] = f.NewPassword
	}
	return out
}
