package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/mdouchement/skystore/internal/cache"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/media"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/server/serializer"
	"github.com/mdouchement/skystore/internal/skerror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RelatedProducts is the number of related products rendered with a product.
const RelatedProducts = 4

// A Catalog handles the products and their categories.
type Catalog struct {
	db      database.Client
	cache   cache.Cache
	storage *media.Storage
	log     logrus.FieldLogger
}

// NewCatalog returns a new Catalog.
func NewCatalog(db database.Client, c cache.Cache, storage *media.Storage, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		db:      db,
		cache:   c,
		storage: storage,
		log:     log,
	}
}

// Categories returns all the categories.
func (s *Catalog) Categories() (Render, error) {
	categories, err := s.db.FindCategories()
	if err != nil {
		return nil, errors.Wrap(err, "could not list categories")
	}

	return M{"categories": serializer.Categories(categories)}, nil
}

// List returns the page of the products visible by the viewer.
func (s *Catalog) List(ctx context.Context, viewer policy.Viewer, number int) (Render, error) {
	return s.list(ctx, viewer, nil, number)
}

// Category returns the page of the products of the category visible by the viewer.
func (s *Catalog) Category(ctx context.Context, viewer policy.Viewer, id string, number int) (Render, error) {
	category, err := s.db.FindCategory(id)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, skerror.NotFound("Category not found.")
		}
		return nil, errors.Wrap(err, "could not get category")
	}

	return s.list(ctx, viewer, category, number)
}

func (s *Catalog) list(ctx context.Context, viewer policy.Viewer, category *model.Category, number int) (Render, error) {
	filter := "all"
	if category != nil {
		filter = "category=" + category.ID
	}
	// The generation is read before querying so a listing racing with a write is never served.
	gen, cacheable := generation(ctx, s.cache, s.log, cache.NamespaceProducts)
	key := cache.GenerationKey(cache.NamespaceProducts, gen, ProductClass(viewer), filter, strconv.Itoa(number))

	if cacheable {
		if payload, ok := s.cached(ctx, key); ok {
			return payload, nil
		}
	}

	query := database.ProductQuery{Viewer: viewer}
	if category != nil {
		query.CategoryID = category.ID
	}

	query.Page = Requested(number)
	products, total, err := s.db.FindProducts(query)
	if err != nil {
		return nil, errors.Wrap(err, "could not list products")
	}

	pagination := Paginate(number, total)
	if pagination.Page() != query.Page {
		// The requested page is out of range.
		query.Page = pagination.Page()
		if products, total, err = s.db.FindProducts(query); err != nil {
			return nil, errors.Wrap(err, "could not list products")
		}
	}

	render := M{
		"products": serializer.Products(products),
		"page":     pagination,
	}
	if category != nil {
		render["category"] = serializer.Category(category)
	}

	if cacheable {
		s.store(ctx, key, render)
	}
	return render, nil
}

// Show returns the product with its related products.
// A product the viewer cannot see is reported as not found.
func (s *Catalog) Show(viewer policy.Viewer, id string) (Render, error) {
	product, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	related, _, err := s.db.FindProducts(database.ProductQuery{
		Viewer:     viewer,
		CategoryID: product.CategoryID,
		ExcludeID:  product.ID,
		Page:       database.Page{Limit: RelatedProducts},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not list related products")
	}

	item := product.PolicyItem()
	render := M{
		"product":    serializer.Product(product),
		"related":    serializer.Products(related),
		"can_edit":   policy.CanEdit(viewer, item) == nil,
		"can_delete": policy.CanDelete(viewer, item) == nil,
		"targets":    targets(viewer, item),
	}

	category, err := s.db.FindCategory(product.CategoryID)
	switch {
	case err == nil:
		render["category"] = serializer.Category(category)
	case !s.db.IsNotFound(err):
		return nil, errors.Wrap(err, "could not get category")
	}

	return render, nil
}

// Create creates a product owned by the viewer.
func (s *Catalog) Create(ctx context.Context, viewer policy.Viewer, f *form.Product) (Render, error) {
	if err := policy.CanCreate(viewer, policy.VariantProduct); err != nil {
		return nil, Deny(viewer, err)
	}

	if err := f.Validate(s.db, s.db.IsNotFound); err != nil {
		return nil, err
	}

	product := model.NewProduct(viewer.Identity)
	f.Apply(product)

	if target := policy.State(f.State); f.State != "" && target != product.State {
		if err := policy.CanTransition(viewer, product.PolicyItem(), target); err != nil {
			return nil, Deny(viewer, err)
		}
		product.State = target
	}

	if err := s.db.Save(product); err != nil {
		return nil, errors.Wrap(err, "could not persist product")
	}
	s.flush(ctx)

	s.log.WithField("product", product.ID).WithField("owner", product.OwnerID).Info("product created")
	return M{"product": serializer.Product(product)}, nil
}

// Update edits the product.
func (s *Catalog) Update(ctx context.Context, viewer policy.Viewer, id string, f *form.Product) (Render, error) {
	read, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	item := read.PolicyItem()
	if err = policy.CanEdit(viewer, item); err != nil {
		return nil, Deny(viewer, err)
	}

	if err = f.Validate(s.db, s.db.IsNotFound); err != nil {
		return nil, err
	}

	target := read.State
	if f.State != "" && policy.State(f.State) != read.State {
		target = policy.State(f.State)
		if err = policy.CanTransition(viewer, item, target); err != nil {
			return nil, Deny(viewer, err)
		}
	}

	product, err := s.db.UpdateProduct(id, func(p *model.Product) error {
		if p.State != read.State {
			return errors.Wrapf(database.ErrStaleState, "product is %s", p.State)
		}
		f.Apply(p)
		p.State = target
		return nil
	})
	if err != nil {
		return nil, s.failure(err, "could not update product")
	}
	s.flush(ctx)

	return M{"product": serializer.Product(product)}, nil
}

// Delete deletes the product.
func (s *Catalog) Delete(ctx context.Context, viewer policy.Viewer, id string) (Render, error) {
	product, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	if err = policy.CanDelete(viewer, product.PolicyItem()); err != nil {
		return nil, Deny(viewer, err)
	}

	if err = s.db.Delete(product); err != nil {
		return nil, s.failure(err, "could not delete product")
	}
	s.flush(ctx)

	if err = s.storage.Remove(product.Image); err != nil {
		s.log.WithField("product", product.ID).WithError(err).Warn("could not remove product image")
	}

	return M{"success": true, "message": fmt.Sprintf("Product %q deleted.", product.Name)}, nil
}

// Transition moves the product to the target state.
func (s *Catalog) Transition(ctx context.Context, viewer policy.Viewer, id string, target string) (Render, error) {
	product, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	state := policy.State(target)
	if err = policy.CanTransition(viewer, product.PolicyItem(), state); err != nil {
		s.log.WithField("product", id).WithField("state", target).WithError(err).Info("product transition rejected")
		return nil, Deny(viewer, err)
	}

	product, err = s.db.TransitionProduct(id, product.State, state)
	if err != nil {
		return nil, s.failure(err, "could not change product state")
	}
	s.flush(ctx)

	return M{
		"success": true,
		"state":   product.State,
		"message": fmt.Sprintf("Product %q is now %s.", product.Name, product.State),
	}, nil
}

// Image replaces the image of the product.
func (s *Catalog) Image(ctx context.Context, viewer policy.Viewer, id string, fh *multipart.FileHeader) (Render, error) {
	read, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	if err = policy.CanEdit(viewer, read.PolicyItem()); err != nil {
		return nil, Deny(viewer, err)
	}

	name, err := s.storage.Save(media.DirProducts, fh)
	if err != nil {
		return nil, upload("image", err)
	}

	previous := ""
	product, err := s.db.UpdateProduct(id, func(p *model.Product) error {
		previous = p.Image
		p.Image = name
		return nil
	})
	if err != nil {
		s.storage.Remove(name) // nolint:errcheck
		return nil, s.failure(err, "could not update product image")
	}
	s.flush(ctx)

	if err = s.storage.Remove(previous); err != nil {
		s.log.WithField("product", product.ID).WithError(err).Warn("could not remove previous product image")
	}

	return M{"product": serializer.Product(product)}, nil
}

func (s *Catalog) visible(viewer policy.Viewer, id string) (*model.Product, error) {
	product, err := s.db.FindProduct(id)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, skerror.NotFound("Product not found.")
		}
		return nil, errors.Wrap(err, "could not get product")
	}

	if !policy.CanView(viewer, product.PolicyItem()) {
		return nil, skerror.NotFound("Product not found.")
	}
	return product, nil
}

func (s *Catalog) failure(err error, message string) error {
	switch {
	case s.db.IsNotFound(err):
		return skerror.NotFound("Product not found.")
	case s.db.IsStale(err):
		return conflict("The product has been modified concurrently, reload it and try again.")
	}
	return errors.Wrap(err, message)
}

func (s *Catalog) cached(ctx context.Context, key string) (Render, bool) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithField("key", key).WithError(err).Warn("could not read cache")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return json.RawMessage(payload), true
}

func (s *Catalog) store(ctx context.Context, key string, render Render) {
	store(ctx, s.cache, s.log, key, render)
}

func (s *Catalog) flush(ctx context.Context) {
	if err := s.cache.Flush(ctx, cache.NamespaceProducts); err != nil {
		s.log.WithError(err).Warn("could not flush products cache")
	}
}

// ProductClass returns the cache class of the viewer for the products listings.
// Owners see their own unpublished products so each of them has its own class.
func ProductClass(viewer policy.Viewer) string {
	switch {
	case viewer.Has(policy.CanUnpublishProduct):
		return "moderator"
	case viewer.Authenticated:
		return "user:" + viewer.Identity
	}
	return "anonymous"
}

func targets(viewer policy.Viewer, item policy.Item) []policy.State {
	t := policy.Targets(viewer, item)
	if t == nil {
		return []policy.State{}
	}
	return t
}

// generation returns the current generation of the namespace, or false when listings must not be cached.
func generation(ctx context.Context, c cache.Cache, log logrus.FieldLogger, namespace string) (uint64, bool) {
	gen, err := c.Generation(ctx, namespace)
	if err != nil {
		log.WithField("namespace", namespace).WithError(err).Warn("could not read cache generation")
		return 0, false
	}
	return gen, true
}

func store(ctx context.Context, c cache.Cache, log logrus.FieldLogger, key string, render Render) {
	payload, err := json.Marshal(render)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("could not encode cached value")
		return
	}

	if err = c.Set(ctx, key, payload); err != nil {
		log.WithField("key", key).WithError(err).Warn("could not write cache")
	}
}

func upload(field string, err error) error {
	if media.IsValidationError(err) {
		return skerror.InvalidForm(map[string]string{field: err.Error()})
	}
	return errors.Wrap(err, "could not store upload")
}
