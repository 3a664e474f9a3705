package database

import (
	"sort"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/pkg/errors"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(msgpack.Codec)

// Models returns an instance of every record type stored in the database.
func Models() []model.Model {
	return []model.Model{
		&model.User{},
		&model.Group{},
		&model.Session{},
		&model.Category{},
		&model.Product{},
		&model.BlogPost{},
		&model.ContactInfo{},
	}
}

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	for _, m := range Models() {
		if err := db.Init(m); err != nil {
			return errors.Wrapf(err, "could not init %T index", m)
		}
	}
	return nil
}

// StormReIndex reindex Storm database.
func StormReIndex(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	for _, m := range Models() {
		if err := db.ReIndex(m); err != nil {
			return errors.Wrapf(err, "could not ReIndex %T", m)
		}
	}
	return nil
}

// StormOpen returns a new Storm database connection.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	return errors.Wrap(save(c.db, m), "could not save the model")
}

func save(n storm.Node, m model.Model) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return n.Save(m)
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

// Clear deletes all the entries of the given model's type.
func (c *strm) Clear(m model.Model) error {
	err := c.db.Select().Delete(m)
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrapf(err, "could not clear %T", m)
	}
	return nil
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is nil or a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// IsStale returns true if err is a stale state error.
func (c *strm) IsStale(err error) bool {
	return errors.Cause(err) == ErrStaleState
}

//
// Users
//

// FindUser returns the user for the given id (UUID).
func (c *strm) FindUser(id string) (*model.User, error) {
	var user model.User
	if err := c.db.One("ID", id, &user); err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}

// FindUserByMail returns the user for the given email.
func (c *strm) FindUserByMail(email string) (*model.User, error) {
	var user model.User
	if err := c.db.One("Email", email, &user); err != nil {
		return nil, errors.Wrap(err, "find user by mail")
	}
	return &user, nil
}

// FindUserByUsername returns the user for the given username.
func (c *strm) FindUserByUsername(username string) (*model.User, error) {
	var user model.User
	if err := c.db.One("Username", username, &user); err != nil {
		return nil, errors.Wrap(err, "find user by username")
	}
	return &user, nil
}

//
// Groups
//

// FindGroupByName returns the group for the given name.
func (c *strm) FindGroupByName(name string) (*model.Group, error) {
	var group model.Group
	if err := c.db.One("Name", name, &group); err != nil {
		return nil, errors.Wrap(err, "find group by name")
	}
	return &group, nil
}

// FindGroups returns the groups for the given ids.
func (c *strm) FindGroups(ids []string) ([]*model.Group, error) {
	groups := make([]*model.Group, 0, len(ids))
	if len(ids) == 0 {
		return groups, nil
	}

	err := c.db.Select(q.In("ID", ids)).Find(&groups)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find groups")
	}
	return groups, nil
}

//
// Sessions
//

// FindSessionByAccessToken returns the session for the given id and access token.
func (c *strm) FindSessionByAccessToken(id, token string) (*model.Session, error) {
	var session model.Session
	err := c.db.Select(q.Eq("ID", id), q.Eq("AccessToken", token)).First(&session)
	if err != nil {
		return nil, errors.Wrap(err, "find session by access token")
	}
	return &session, nil
}

// FindSessionByTokens returns the session for the given id, access and refresh token.
func (c *strm) FindSessionByTokens(id, access, refresh string) (*model.Session, error) {
	var session model.Session
	err := c.db.Select(q.Eq("ID", id), q.Eq("AccessToken", access), q.Eq("RefreshToken", refresh)).First(&session)
	if err != nil {
		return nil, errors.Wrap(err, "find session by tokens")
	}
	return &session, nil
}

// DeleteSessionsByUserID deletes all the sessions of the given user.
func (c *strm) DeleteSessionsByUserID(userID string) error {
	err := c.db.Select(q.Eq("UserID", userID)).Delete(&model.Session{})
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not delete sessions")
	}
	return nil
}

//
// Categories
//

// FindCategory returns the category for the given id (UUID).
func (c *strm) FindCategory(id string) (*model.Category, error) {
	var category model.Category
	if err := c.db.One("ID", id, &category); err != nil {
		return nil, errors.Wrap(err, "find category by id")
	}
	return &category, nil
}

// FindCategories returns all the categories ordered by name.
func (c *strm) FindCategories() ([]*model.Category, error) {
	categories := make([]*model.Category, 0)
	err := c.db.Select().OrderBy("Name").Find(&categories)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find categories")
	}
	return categories, nil
}

//
// Products
//

// FindProduct returns the product for the given id (UUID) whatever its state.
func (c *strm) FindProduct(id string) (*model.Product, error) {
	var product model.Product
	if err := c.db.One("ID", id, &product); err != nil {
		return nil, errors.Wrap(err, "find product by id")
	}
	return &product, nil
}

// FindProducts returns the products visible by the query's viewer, newest first,
// and the total number of matching products.
func (c *strm) FindProducts(query ProductQuery) ([]*model.Product, int, error) {
	matchers := []q.Matcher{VisibleTo(query.Viewer)}
	if query.CategoryID != "" {
		matchers = append(matchers, q.Eq("CategoryID", query.CategoryID))
	}
	if query.ExcludeID != "" {
		matchers = append(matchers, q.Not(q.Eq("ID", query.ExcludeID)))
	}

	products := make([]*model.Product, 0)
	err := c.db.Select(matchers...).Find(&products)
	if err != nil && !c.IsNotFound(err) {
		return nil, 0, errors.Wrap(err, "could not find products")
	}

	sort.SliceStable(products, func(i, j int) bool {
		return newer(&products[i].Base, &products[j].Base)
	})

	total := len(products)
	return paginate(products, query.Page), total, nil
}

// TransitionProduct moves the product from one state to another.
func (c *strm) TransitionProduct(id string, from, to policy.State) (*model.Product, error) {
	return c.UpdateProduct(id, func(product *model.Product) error {
		if product.State != from {
			return errors.Wrapf(ErrStaleState, "product is %s", product.State)
		}
		product.State = to
		return nil
	})
}

// UpdateProduct applies the update to the stored product in a single transaction.
func (c *strm) UpdateProduct(id string, update func(*model.Product) error) (*model.Product, error) {
	tx, err := c.db.Begin(true)
	if err != nil {
		return nil, errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	var product model.Product
	if err = tx.One("ID", id, &product); err != nil {
		return nil, errors.Wrap(err, "find product by id")
	}

	if err = update(&product); err != nil {
		return nil, err
	}

	if err = save(tx, &product); err != nil {
		return nil, errors.Wrap(err, "could not save product")
	}

	return &product, errors.Wrap(tx.Commit(), "could not commit product update")
}

// DeleteProductsByOwner deletes all the products of the given user.
func (c *strm) DeleteProductsByOwner(ownerID string) error {
	err := c.db.Select(q.Eq("OwnerID", ownerID)).Delete(&model.Product{})
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not delete products")
	}
	return nil
}

//
// Blog
//

// FindBlogPost returns the post for the given id (UUID) whatever its state.
func (c *strm) FindBlogPost(id string) (*model.BlogPost, error) {
	var post model.BlogPost
	if err := c.db.One("ID", id, &post); err != nil {
		return nil, errors.Wrap(err, "find blog post by id")
	}
	return &post, nil
}

// FindBlogPosts returns the posts visible by the viewer, newest first,
// and the total number of matching posts.
func (c *strm) FindBlogPosts(viewer policy.Viewer, page Page) ([]*model.BlogPost, int, error) {
	posts := make([]*model.BlogPost, 0)
	err := c.db.Select(VisibleTo(viewer)).Find(&posts)
	if err != nil && !c.IsNotFound(err) {
		return nil, 0, errors.Wrap(err, "could not find blog posts")
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return newer(&posts[i].Base, &posts[j].Base)
	})

	total := len(posts)
	return paginate(posts, page), total, nil
}

// TransitionBlogPost moves the post from one state to another.
func (c *strm) TransitionBlogPost(id string, from, to policy.State) (*model.BlogPost, error) {
	return c.UpdateBlogPost(id, func(post *model.BlogPost) error {
		if post.State != from {
			return errors.Wrapf(ErrStaleState, "blog post is %s", post.State)
		}
		post.State = to
		return nil
	})
}

// IncrementViewCount atomically increments the view counter of the post.
func (c *strm) IncrementViewCount(id string) (*model.BlogPost, error) {
	return c.UpdateBlogPost(id, func(post *model.BlogPost) error {
		post.ViewCount++
		return nil
	})
}

// UpdateBlogPost applies the update to the stored post in a single transaction.
func (c *strm) UpdateBlogPost(id string, update func(*model.BlogPost) error) (*model.BlogPost, error) {
	tx, err := c.db.Begin(true)
	if err != nil {
		return nil, errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	var post model.BlogPost
	if err = tx.One("ID", id, &post); err != nil {
		return nil, errors.Wrap(err, "find blog post by id")
	}

	if err = update(&post); err != nil {
		return nil, err
	}

	if err = save(tx, &post); err != nil {
		return nil, errors.Wrap(err, "could not save blog post")
	}

	return &post, errors.Wrap(tx.Commit(), "could not commit blog post update")
}

//
// Contacts
//

// FindActiveContactInfo returns the most recent active contact info.
func (c *strm) FindActiveContactInfo() (*model.ContactInfo, error) {
	infos := make([]*model.ContactInfo, 0)
	err := c.db.Select(q.Eq("IsActive", true)).Find(&infos)
	if err == nil && len(infos) == 0 {
		err = storm.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find active contact info")
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return newer(&infos[i].Base, &infos[j].Base)
	})
	return infos[0], nil
}

//
// Helpers
//

func newer(a, b *model.Base) bool {
	ta, tb := a.GetCreatedAt(), b.GetCreatedAt()
	switch {
	case ta == nil:
		return false
	case tb == nil:
		return true
	case ta.Equal(*tb):
		return a.ID > b.ID
	}
	return ta.After(*tb)
}

func paginate[T any](records []T, page Page) []T {
	if page.Offset >= len(records) {
		return records[:0]
	}
	records = records[page.Offset:]

	if page.Limit > 0 && len(records) > page.Limit {
		records = records[:page.Limit]
	}
	return records
}
