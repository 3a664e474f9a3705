package form_test

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/skerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) database.Client {
	filename := filepath.Join(t.TempDir(), "skystore.db")
	require.NoError(t, database.StormInit(filename))

	db, err := database.StormOpen(filename)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func fields(t *testing.T, err error) map[string]string {
	require.Error(t, err)
	skerr, ok := err.(*skerror.SKError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, http.StatusUnprocessableEntity, skerror.StatusCode(err))
	return skerr.Fields()
}

func money(s string) *model.Money {
	m, err := model.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return &m
}

func TestForbiddenWord(t *testing.T) {
	word, ok := form.ForbiddenWord("Cheap ROLEX watches")
	assert.True(t, ok)
	assert.Equal(t, "rolex", word)

	word, ok = form.ForbiddenWord("Лучшее КАЗИНО города")
	assert.True(t, ok)
	assert.Equal(t, "казино", word)

	_, ok = form.ForbiddenWord("Smartphone 128GB")
	assert.False(t, ok)
}

func TestProduct_Validate(t *testing.T) {
	db := setup(t)
	category := &model.Category{Name: "Phones"}
	require.NoError(t, db.Save(category))

	f := &form.Product{}
	errs := fields(t, f.Validate(db, db.IsNotFound))
	assert.Equal(t, form.MessageRequired, errs["name"])
	assert.Equal(t, form.MessageRequired, errs["price"])
	assert.Equal(t, form.MessageRequired, errs["category_id"])

	f = &form.Product{
		Name:        "Bitcoin miner",
		Description: "Great for betting",
		Price:       money("1000000.01"),
		CategoryID:  "unknown",
	}
	errs = fields(t, f.Validate(db, db.IsNotFound))
	assert.Contains(t, errs["name"], "bitcoin")
	assert.Contains(t, errs["description"], "betting")
	assert.Contains(t, errs["price"], "1000000.00")
	assert.Equal(t, "Select a valid category.", errs["category_id"])

	f = &form.Product{Name: string(make([]rune, 101)), Price: money("-1"), CategoryID: category.ID}
	errs = fields(t, f.Validate(db, db.IsNotFound))
	assert.Contains(t, errs["name"], "at most 100")
	assert.Contains(t, errs["price"], "negative")

	f = &form.Product{Name: "  Phone  ", Price: money("1000000"), CategoryID: category.ID}
	require.NoError(t, f.Validate(db, db.IsNotFound))

	p := model.NewProduct("u1")
	f.Apply(p)
	assert.Equal(t, "Phone", p.Name)
	assert.Equal(t, form.MaxPrice, p.Price)
	assert.Equal(t, category.ID, p.CategoryID)
	assert.Equal(t, policy.StatePending, p.State)
}

func TestBlogPost_Validate(t *testing.T) {
	f := &form.BlogPost{}
	errs := fields(t, f.Validate())
	assert.Equal(t, form.MessageRequired, errs["title"])
	assert.Equal(t, form.MessageRequired, errs["content"])

	_, ok := f.Target()
	assert.False(t, ok)

	published := true
	f = &form.BlogPost{Title: "Hello", Content: "World", Published: &published}
	require.NoError(t, f.Validate())

	state, ok := f.Target()
	assert.True(t, ok)
	assert.Equal(t, policy.StatePublished, state)
}

func TestRegistration_Validate(t *testing.T) {
	db := setup(t)
	existing := model.NewUser()
	existing.Email = "george@nowhere.lan"
	existing.Username = "george"
	require.NoError(t, db.Save(existing))

	f := &form.Registration{
		Profile: form.Profile{
			Username:    "george",
			Email:       "george@nowhere.lan",
			PhoneNumber: "8 999 123",
			DateOfBirth: "not a date",
		},
		Password:             "short",
		PasswordConfirmation: "other",
	}
	errs := fields(t, f.Validate(db, db.IsNotFound))
	assert.Contains(t, errs["username"], "already exists")
	assert.Contains(t, errs["email"], "already exists")
	assert.Contains(t, errs["phone_number"], "Invalid")
	assert.Contains(t, errs["date_of_birth"], "valid date")
	assert.Contains(t, errs["password"], "too short")
	assert.Contains(t, errs["password_confirmation"], "didn't match")

	f = &form.Registration{
		Profile: form.Profile{
			Username:    "robert",
			Email:       "robert@nowhere.lan",
			PhoneNumber: "+7 (999) 123-45-67",
			DateOfBirth: "1984-06-21",
		},
		Password:             "password42",
		PasswordConfirmation: "password42",
	}
	// A valid number still has to fit in 15 characters.
	errs = fields(t, f.Validate(db, db.IsNotFound))
	assert.Equal(t, map[string]string{"phone_number": "Ensure this value has at most 15 characters."}, errs)

	f.PhoneNumber = "+7 999 1234567"
	require.NoError(t, f.Validate(db, db.IsNotFound))

	u := model.NewUser()
	f.Apply(u)
	assert.Equal(t, "robert", u.Username)
	require.NotNil(t, u.DateOfBirth)
	assert.Equal(t, time.Date(1984, 6, 21, 0, 0, 0, 0, time.UTC), *u.DateOfBirth)
}

func TestProfile_ValidateExcludesSelf(t *testing.T) {
	db := setup(t)
	u := model.NewUser()
	u.Email = "george@nowhere.lan"
	u.Username = "george"
	require.NoError(t, db.Save(u))

	f := &form.Profile{Username: "george", Email: "george@nowhere.lan"}
	assert.NoError(t, f.Validate(db, db.IsNotFound, u.ID))

	errs := fields(t, f.Validate(db, db.IsNotFound, "someone-else"))
	assert.Contains(t, errs["email"], "already exists")

	f.Email = "george"
	errs = fields(t, f.Validate(db, db.IsNotFound, u.ID))
	assert.Equal(t, "Enter a valid email address.", errs["email"])
}

func TestValidPhoneNumber(t *testing.T) {
	assert.True(t, form.ValidPhoneNumber("+79991234567"))
	assert.True(t, form.ValidPhoneNumber("+7 (999) 123-45-67"))
	assert.False(t, form.ValidPhoneNumber("89991234567"))
	assert.False(t, form.ValidPhoneNumber("+7999"))
}

func TestFeedback_Validate(t *testing.T) {
	errs := fields(t, (&form.Feedback{Phone: "123"}).Validate())
	assert.Equal(t, form.MessageRequired, errs["name"])
	assert.Equal(t, form.MessageRequired, errs["message"])
	assert.Contains(t, errs["phone"], "Invalid")

	assert.NoError(t, (&form.Feedback{Name: "George", Message: "Hello"}).Validate())
}
