package form

import (
	"strings"

	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/pkg/errors"
)

// MaxPrice is the highest price of a product.
const MaxPrice = model.Money(1_000_000 * 100)

// A Product is the form used to create and edit products.
type Product struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       *model.Money `json:"price"`
	CategoryID  string       `json:"category_id"`
	// State is optional and goes through the moderation policy.
	State string `json:"state"`
}

// Validate checks the form, categories are used to ensure the category exists.
func (f *Product) Validate(categories database.CategoryInteraction, notFound func(error) bool) error {
	errs := Errors{}
	f.Name = strings.TrimSpace(f.Name)

	if errs.required("name", f.Name) {
		errs.maxLength("name", f.Name, 100)
		errs.clean("name", f.Name)
	}
	errs.clean("description", f.Description)

	switch {
	case f.Price == nil:
		errs.Add("price", MessageRequired)
	case *f.Price < 0:
		errs.Add("price", "The price cannot be negative.")
	case *f.Price > MaxPrice:
		errs.Add("price", "The price cannot exceed %s.", MaxPrice)
	}

	if errs.required("category_id", f.CategoryID) {
		if _, err := categories.FindCategory(f.CategoryID); err != nil {
			if !notFound(err) {
				return errors.Wrap(err, "could not check category")
			}
			errs.Add("category_id", "Select a valid category.")
		}
	}

	return errs.Err()
}

// Apply copies the form values to the product.
// The state is not copied, it goes through the moderation workflow.
func (f *Product) Apply(p *model.Product) {
	p.Name = f.Name
	p.Description = f.Description
	if f.Price != nil {
		p.Price = *f.Price
	}
	p.CategoryID = f.CategoryID
}
