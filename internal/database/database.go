package database

import (
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/pkg/errors"
)

// ErrStaleState is returned by a conditional transition when the stored state
// is no longer the one the caller read.
var ErrStaleState = errors.New("state has been changed concurrently")

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Clear deletes all the entries of the given model's type.
		Clear(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsStale returns true if err is a stale state error.
		IsStale(err error) bool

		UserInteraction
		GroupInteraction
		SessionInteraction
		CategoryInteraction
		ProductInteraction
		BlogPostInteraction
		ContactInfoInteraction
	}

	// An UserInteraction defines all the methods used to interact with a user record.
	UserInteraction interface {
		// FindUser returns the user for the given id (UUID).
		FindUser(id string) (*model.User, error)
		// FindUserByMail returns the user for the given email.
		FindUserByMail(email string) (*model.User, error)
		// FindUserByUsername returns the user for the given username.
		FindUserByUsername(username string) (*model.User, error)
	}

	// A GroupInteraction defines all the methods used to interact with a group record.
	GroupInteraction interface {
		// FindGroupByName returns the group for the given name.
		FindGroupByName(name string) (*model.Group, error)
		// FindGroups returns the groups for the given ids. Unknown ids are ignored.
		FindGroups(ids []string) ([]*model.Group, error)
	}

	// A SessionInteraction defines all the methods used to interact with a session record.
	SessionInteraction interface {
		// FindSessionByAccessToken returns the session for the given id and access token.
		FindSessionByAccessToken(id, token string) (*model.Session, error)
		// FindSessionByTokens returns the session for the given id, access and refresh token.
		FindSessionByTokens(id, access, refresh string) (*model.Session, error)
		// DeleteSessionsByUserID deletes all the sessions of the given user.
		DeleteSessionsByUserID(userID string) error
	}

	// A CategoryInteraction defines all the methods used to interact with a category record.
	CategoryInteraction interface {
		// FindCategory returns the category for the given id (UUID).
		FindCategory(id string) (*model.Category, error)
		// FindCategories returns all the categories ordered by name.
		FindCategories() ([]*model.Category, error)
	}

	// A ProductInteraction defines all the methods used to interact with product records.
	ProductInteraction interface {
		// FindProduct returns the product for the given id (UUID) whatever its state.
		// Callers must apply the visibility policy.
		FindProduct(id string) (*model.Product, error)
		// FindProducts returns the products visible by the query's viewer, newest first,
		// and the total number of matching products.
		FindProducts(query ProductQuery) ([]*model.Product, int, error)
		// TransitionProduct moves the product from one state to another.
		// It returns ErrStaleState when the stored state is not from.
		TransitionProduct(id string, from, to policy.State) (*model.Product, error)
		// UpdateProduct applies the update to the stored product in a single transaction.
		// Nothing is written when update returns an error.
		UpdateProduct(id string, update func(*model.Product) error) (*model.Product, error)
		// DeleteProductsByOwner deletes all the products of the given user.
		DeleteProductsByOwner(ownerID string) error
	}

	// A BlogPostInteraction defines all the methods used to interact with blog post records.
	BlogPostInteraction interface {
		// FindBlogPost returns the post for the given id (UUID) whatever its state.
		// Callers must apply the visibility policy.
		FindBlogPost(id string) (*model.BlogPost, error)
		// FindBlogPosts returns the posts visible by the viewer, newest first,
		// and the total number of matching posts.
		FindBlogPosts(viewer policy.Viewer, page Page) ([]*model.BlogPost, int, error)
		// TransitionBlogPost moves the post from one state to another.
		// It returns ErrStaleState when the stored state is not from.
		TransitionBlogPost(id string, from, to policy.State) (*model.BlogPost, error)
		// UpdateBlogPost applies the update to the stored post in a single transaction.
		// Nothing is written when update returns an error.
		UpdateBlogPost(id string, update func(*model.BlogPost) error) (*model.BlogPost, error)
		// IncrementViewCount atomically increments the view counter of the post.
		IncrementViewCount(id string) (*model.BlogPost, error)
	}

	// A ContactInfoInteraction defines all the methods used to interact with contact records.
	ContactInfoInteraction interface {
		// FindActiveContactInfo returns the most recent active contact info.
		FindActiveContactInfo() (*model.ContactInfo, error)
	}

	// A Page delimits a slice of a listing.
	// Limit equals to 0 means all records.
	Page struct {
		Offset int
		Limit  int
	}

	// A ProductQuery filters the products listing.
	ProductQuery struct {
		Page
		Viewer policy.Viewer
		// CategoryID restricts the listing to one category when not empty.
		CategoryID string
		// ExcludeID removes the given product from the listing when not empty.
		ExcludeID string
	}
)
