// Package seed loads the reference data of a fresh database.
package seed

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/mdouchement/skystore/internal/cache"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Permissions creates the content managers group or completes its capabilities.
// It reports whether the group has been created.
func Permissions(db database.Client, log logrus.FieldLogger) (bool, error) {
	group, err := db.FindGroupByName(model.ContentManagerGroup)
	created := db.IsNotFound(err)
	switch {
	case created:
		group = &model.Group{Name: model.ContentManagerGroup}
	case err != nil:
		return false, errors.Wrap(err, "could not get group")
	}

	for _, c := range policy.BlogCapabilities() {
		group.AddCapability(string(c))
	}

	if err = db.Save(group); err != nil {
		return false, errors.Wrap(err, "could not persist group")
	}

	log.WithField("group", group.Name).WithField("created", created).Info("permissions set up")
	return created, nil
}

// ContactInfo creates the built-in contact details when none is active.
// It reports whether they have been created.
func ContactInfo(db database.Client, log logrus.FieldLogger) (bool, error) {
	_, err := db.FindActiveContactInfo()
	switch {
	case err == nil:
		log.Info("active contact info already exists")
		return false, nil
	case !db.IsNotFound(err):
		return false, errors.Wrap(err, "could not get contact info")
	}

	info := model.DefaultContactInfo()
	if err = db.Save(info); err != nil {
		return false, errors.Wrap(err, "could not persist contact info")
	}

	log.WithField("company", info.CompanyName).Info("contact info created")
	return true, nil
}

type (
	// Fixtures are the catalog records to load.
	Fixtures struct {
		Categories []CategoryFixture `json:"categories"`
		Products   []ProductFixture  `json:"products"`
	}

	// A CategoryFixture describes a category.
	CategoryFixture struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// A ProductFixture describes a product.
	// Category is a category name and Owner a user email.
	ProductFixture struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Price       model.Money `json:"price"`
		Category    string      `json:"category"`
		Owner       string      `json:"owner"`
		State       string      `json:"state"`
	}

	// A Report counts the loaded records.
	Report struct {
		Categories int
		Products   int
	}
)

// ReadFixtures decodes the JSON fixtures from r.
func ReadFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "could not decode fixtures")
	}
	return &f, nil
}

// Products loads the fixtures. When clear is set, all the existing products and
// categories are deleted first. Existing categories are matched by name.
// The cached product listings are flushed once the catalog has changed.
func Products(ctx context.Context, db database.Client, listings cache.Cache, f *Fixtures, clear bool, log logrus.FieldLogger) (report Report, err error) {
	defer func() {
		if !clear && report.Categories == 0 && report.Products == 0 {
			return
		}
		if ferr := flush(ctx, listings, cache.NamespaceProducts, log); ferr != nil && err == nil {
			err = ferr
		}
	}()

	if clear {
		if err := db.Clear(&model.Product{}); err != nil {
			return report, err
		}
		if err := db.Clear(&model.Category{}); err != nil {
			return report, err
		}
		log.Info("catalog cleared")
	}

	existing, err := db.FindCategories()
	if err != nil {
		return report, errors.Wrap(err, "could not list categories")
	}

	categories := map[string]*model.Category{}
	for _, c := range existing {
		categories[strings.ToLower(c.Name)] = c
	}

	for _, cf := range f.Categories {
		key := strings.ToLower(strings.TrimSpace(cf.Name))
		if key == "" {
			return report, errors.New("category name is required")
		}
		if _, ok := categories[key]; ok {
			continue
		}

		category := &model.Category{Name: strings.TrimSpace(cf.Name), Description: cf.Description}
		if err = db.Save(category); err != nil {
			return report, errors.Wrapf(err, "could not persist category %q", cf.Name)
		}
		categories[key] = category
		report.Categories++
	}

	owners := map[string]*model.User{}
	for _, pf := range f.Products {
		category, ok := categories[strings.ToLower(strings.TrimSpace(pf.Category))]
		if !ok {
			return report, errors.Errorf("product %q: unknown category %q", pf.Name, pf.Category)
		}

		owner, ok := owners[pf.Owner]
		if !ok {
			if owner, err = db.FindUserByMail(pf.Owner); err != nil {
				if db.IsNotFound(err) {
					return report, errors.Errorf("product %q: unknown owner %q", pf.Name, pf.Owner)
				}
				return report, errors.Wrap(err, "could not get owner")
			}
			owners[pf.Owner] = owner
		}

		product := model.NewProduct(owner.ID)
		product.Name = pf.Name
		product.Description = pf.Description
		product.Price = pf.Price
		product.CategoryID = category.ID
		if pf.State != "" {
			if product.State, err = policy.ParseState(policy.VariantProduct, pf.State); err != nil {
				return report, errors.Wrapf(err, "product %q", pf.Name)
			}
		}

		if err = db.Save(product); err != nil {
			return report, errors.Wrapf(err, "could not persist product %q", pf.Name)
		}
		report.Products++
	}

	log.WithField("categories", report.Categories).WithField("products", report.Products).Info("fixtures loaded")
	return report, nil
}

// RemoveUser deletes the user with its products and its sessions.
// A nil user is returned when there is no account for the email.
func RemoveUser(ctx context.Context, db database.Client, listings cache.Cache, email string, log logrus.FieldLogger) (*model.User, error) {
	user, err := db.FindUserByMail(email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "could not get user")
	}

	if err = db.DeleteProductsByOwner(user.ID); err != nil {
		return nil, errors.Wrap(err, "could not delete products")
	}
	if err = flush(ctx, listings, cache.NamespaceProducts, log); err != nil {
		return nil, err
	}

	if err = db.DeleteSessionsByUserID(user.ID); err != nil {
		return nil, errors.Wrap(err, "could not delete sessions")
	}

	if err = db.Delete(user); err != nil && !db.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not delete user")
	}

	log.WithField("user", user.ID).Info("user removed")
	return user, nil
}

func flush(ctx context.Context, listings cache.Cache, namespace string, log logrus.FieldLogger) error {
	if err := listings.Flush(ctx, namespace); err != nil {
		return errors.Wrapf(err, "could not flush %s listings", namespace)
	}
	log.WithField("namespace", namespace).Info("listings flushed")
	return nil
}

// A Grant describes the permissions given to a user.
type Grant struct {
	Email        string
	Groups       []string
	Capabilities []string
	Superuser    bool
}

// Apply grants the permissions to the user. Nothing is written when a group or
// a capability is unknown.
func (g Grant) Apply(db database.Client, log logrus.FieldLogger) (*model.User, error) {
	user, err := db.FindUserByMail(g.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.Errorf("no account for %s", g.Email)
		}
		return nil, errors.Wrap(err, "could not get user")
	}

	for _, name := range g.Capabilities {
		c, err := policy.ParseCapability(name)
		if err != nil {
			return nil, err
		}
		user.AddCapability(string(c))
	}

	for _, name := range g.Groups {
		group, err := db.FindGroupByName(name)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, errors.Errorf("unknown group %q", name)
			}
			return nil, errors.Wrap(err, "could not get group")
		}
		user.JoinGroup(group.ID)
	}

	if g.Superuser {
		user.IsSuperuser = true
		user.IsStaff = true
	}

	if err = db.Save(user); err != nil {
		return nil, errors.Wrap(err, "could not persist user")
	}

	log.WithField("user", user.ID).
		WithField("capabilities", user.Capabilities).
		WithField("groups", user.Groups).
		WithField("superuser", user.IsSuperuser).
		Info("permissions granted")
	return user, nil
}
