package form

import (
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/pkg/errors"
)

// MinPasswordLength is the minimal length of a password.
const MinPasswordLength = 8

type (
	// A Profile is the form used to edit the profile of a user.
	Profile struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Address     string `json:"address"`
		Country     string `json:"country"`
		DateOfBirth string `json:"date_of_birth"`

		dateOfBirth *time.Time
	}

	// A Registration is the form used to register a user.
	Registration struct {
		Profile
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}

	// A Login is the form used to sign in.
	Login struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// A Refresh is the form used to renew a token pair.
	Refresh struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	// A Feedback is the form of the contacts page.
	Feedback struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
)

// Validate checks the form. The uniqueness of the email and username excludes the given user ID.
func (f *Profile) Validate(users database.UserInteraction, notFound func(error) bool, self string) error {
	errs := Errors{}
	if err := f.validate(errs, users, notFound, self); err != nil {
		return err
	}
	return errs.Err()
}

func (f *Profile) validate(errs Errors, users database.UserInteraction, notFound func(error) bool, self string) error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	if errs.required("username", f.Username) {
		errs.maxLength("username", f.Username, 150)

		u, err := users.FindUserByUsername(f.Username)
		if err != nil && !notFound(err) {
			return errors.Wrap(err, "could not check username")
		}
		if u != nil && u.ID != self {
			errs.Add("username", "A user with that username already exists.")
		}
	}

	if errs.required("email", f.Email) {
		if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
			errs.Add("email", "Enter a valid email address.")
		}

		u, err := users.FindUserByMail(f.Email)
		if err != nil && !notFound(err) {
			return errors.Wrap(err, "could not check email")
		}
		if u != nil && u.ID != self {
			errs.Add("email", "A user with that email already exists.")
		}
	}

	if f.PhoneNumber != "" {
		errs.maxLength("phone_number", f.PhoneNumber, 15)
		if !ValidPhoneNumber(f.PhoneNumber) {
			errs.Add("phone_number", "Invalid phone number format.")
		}
	}

	errs.maxLength("first_name", f.FirstName, 150)
	errs.maxLength("last_name", f.LastName, 150)
	errs.maxLength("address", f.Address, 255)
	errs.maxLength("country", f.Country, 100)

	f.dateOfBirth = nil
	if f.DateOfBirth != "" {
		t, err := dateparse.ParseIn(f.DateOfBirth, time.UTC)
		switch {
		case err != nil:
			errs.Add("date_of_birth", "Enter a valid date.")
		case t.After(time.Now()):
			errs.Add("date_of_birth", "The date of birth cannot be in the future.")
		default:
			f.dateOfBirth = &t
		}
	}

	return nil
}

// Apply copies the form values to the user.
func (f *Profile) Apply(u *model.User) {
	u.Username = f.Username
	u.Email = f.Email
	u.PhoneNumber = f.PhoneNumber
	u.FirstName = f.FirstName
	u.LastName = f.LastName
	u.Address = f.Address
	u.Country = f.Country
	u.DateOfBirth = f.dateOfBirth
}

// Validate checks the form.
func (f *Registration) Validate(users database.UserInteraction, notFound func(error) bool) error {
	errs := Errors{}
	if err := f.Profile.validate(errs, users, notFound, ""); err != nil {
		return err
	}

	if errs.required("password", f.Password) {
		if len([]rune(f.Password)) < MinPasswordLength {
			errs.Add("password", "This password is too short. It must contain at least %d characters.", MinPasswordLength)
		}
		if f.Password != f.PasswordConfirmation {
			errs.Add("password_confirmation", "The two password fields didn't match.")
		}
	}

	return errs.Err()
}

// Validate checks the form.
func (f *Login) Validate() error {
	errs := Errors{}
	errs.required("email", f.Email)
	errs.required("password", f.Password)
	return errs.Err()
}

// Validate checks the form.
func (f *Refresh) Validate() error {
	errs := Errors{}
	errs.required("access_token", f.AccessToken)
	errs.required("refresh_token", f.RefreshToken)
	return errs.Err()
}

// Validate checks the form.
func (f *Feedback) Validate() error {
	errs := Errors{}
	errs.required("name", f.Name)
	errs.required("message", f.Message)
	if f.Phone != "" && !ValidPhoneNumber(f.Phone) {
		errs.Add("phone", "Invalid phone number format.")
	}
	return errs.Err()
}

// ValidPhoneNumber returns true if the number, stripped from its separators,
// starts with a + followed by at least 10 digits.
func ValidPhoneNumber(phone string) bool {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	return strings.HasPrefix(cleaned, "+") && len(cleaned) >= 11
}
