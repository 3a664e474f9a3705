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

// A Blog handles the blog posts.
type Blog struct {
	db      database.Client
	cache   cache.Cache
	storage *media.Storage
	log     logrus.FieldLogger
}

// NewBlog returns a new Blog.
func NewBlog(db database.Client, c cache.Cache, storage *media.Storage, log logrus.FieldLogger) *Blog {
	return &Blog{
		db:      db,
		cache:   c,
		storage: storage,
		log:     log,
	}
}

// List returns the page of the posts visible by the viewer.
func (s *Blog) List(ctx context.Context, viewer policy.Viewer, number int) (Render, error) {
	gen, cacheable := generation(ctx, s.cache, s.log, cache.NamespaceBlog)
	key := cache.GenerationKey(cache.NamespaceBlog, gen, BlogClass(viewer), strconv.Itoa(number))

	if cacheable {
		payload, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.WithField("key", key).WithError(err).Warn("could not read cache")
		case ok:
			return json.RawMessage(payload), nil
		}
	}

	page := Requested(number)
	posts, total, err := s.db.FindBlogPosts(viewer, page)
	if err != nil {
		return nil, errors.Wrap(err, "could not list blog posts")
	}

	pagination := Paginate(number, total)
	if pagination.Page() != page {
		// The requested page is out of range.
		if posts, total, err = s.db.FindBlogPosts(viewer, pagination.Page()); err != nil {
			return nil, errors.Wrap(err, "could not list blog posts")
		}
	}

	render := M{
		"posts":           serializer.BlogPosts(posts),
		"page":            pagination,
		"can_manage_blog": viewer.Has(policy.CanManageBlog),
	}

	if cacheable {
		store(ctx, s.cache, s.log, key, render)
	}
	return render, nil
}

// Show returns the post and increments its view counter.
// A post the viewer cannot see is reported as not found and is not counted.
func (s *Blog) Show(viewer policy.Viewer, id string) (Render, error) {
	post, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	post, err = s.db.IncrementViewCount(post.ID)
	if err != nil {
		return nil, s.failure(err, "could not count post view")
	}

	item := post.PolicyItem()
	return M{
		"post":            serializer.BlogPost(post),
		"can_manage_blog": viewer.Has(policy.CanManageBlog),
		"can_edit":        policy.CanEdit(viewer, item) == nil,
		"can_delete":      policy.CanDelete(viewer, item) == nil,
		"can_publish":     policy.CanTransition(viewer, item, policy.Toggle(post.State)) == nil,
	}, nil
}

// Create creates a post authored by the viewer.
func (s *Blog) Create(ctx context.Context, viewer policy.Viewer, f *form.BlogPost) (Render, error) {
	if err := policy.CanCreate(viewer, policy.VariantBlogPost); err != nil {
		return nil, Deny(viewer, err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	post := model.NewBlogPost(viewer.Identity)
	f.Apply(post)

	if target, ok := f.Target(); ok && target != post.State {
		if err := policy.CanTransition(viewer, post.PolicyItem(), target); err != nil {
			return nil, Deny(viewer, err)
		}
		post.State = target
	}

	if err := s.db.Save(post); err != nil {
		return nil, errors.Wrap(err, "could not persist blog post")
	}
	s.flush(ctx)

	s.log.WithField("post", post.ID).Info("blog post created")
	return M{"post": serializer.BlogPost(post)}, nil
}

// Update edits the post.
func (s *Blog) Update(ctx context.Context, viewer policy.Viewer, id string, f *form.BlogPost) (Render, error) {
	read, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	item := read.PolicyItem()
	if err = policy.CanEdit(viewer, item); err != nil {
		return nil, Deny(viewer, err)
	}

	if err = f.Validate(); err != nil {
		return nil, err
	}

	target, ok := f.Target()
	if !ok {
		target = read.State
	}
	if target != read.State {
		if err = policy.CanTransition(viewer, item, target); err != nil {
			return nil, Deny(viewer, err)
		}
	}

	post, err := s.db.UpdateBlogPost(id, func(p *model.BlogPost) error {
		if p.State != read.State {
			return errors.Wrapf(database.ErrStaleState, "blog post is %s", p.State)
		}
		f.Apply(p)
		p.State = target
		return nil
	})
	if err != nil {
		return nil, s.failure(err, "could not update blog post")
	}
	s.flush(ctx)

	return M{"post": serializer.BlogPost(post)}, nil
}

// Delete deletes the post.
func (s *Blog) Delete(ctx context.Context, viewer policy.Viewer, id string) (Render, error) {
	post, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	if err = policy.CanDelete(viewer, post.PolicyItem()); err != nil {
		return nil, Deny(viewer, err)
	}

	if err = s.db.Delete(post); err != nil {
		return nil, s.failure(err, "could not delete blog post")
	}
	s.flush(ctx)

	if err = s.storage.Remove(post.Preview); err != nil {
		s.log.WithField("post", post.ID).WithError(err).Warn("could not remove post preview")
	}

	return M{"success": true, "message": fmt.Sprintf("Post %q deleted.", post.Title)}, nil
}

// Toggle flips the publication of the post.
func (s *Blog) Toggle(ctx context.Context, viewer policy.Viewer, id string) (Render, error) {
	post, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	target := policy.Toggle(post.State)
	if err = policy.CanTransition(viewer, post.PolicyItem(), target); err != nil {
		return nil, Deny(viewer, err)
	}

	post, err = s.db.TransitionBlogPost(id, post.State, target)
	if err != nil {
		return nil, s.failure(err, "could not toggle blog post")
	}
	s.flush(ctx)

	status := "unpublished"
	if post.Published() {
		status = "published"
	}

	return M{
		"success":      true,
		"is_published": post.Published(),
		"message":      fmt.Sprintf("Post %q %s.", post.Title, status),
	}, nil
}

// Preview replaces the preview image of the post.
func (s *Blog) Preview(ctx context.Context, viewer policy.Viewer, id string, fh *multipart.FileHeader) (Render, error) {
	read, err := s.visible(viewer, id)
	if err != nil {
		return nil, err
	}

	if err = policy.CanEdit(viewer, read.PolicyItem()); err != nil {
		return nil, Deny(viewer, err)
	}

	name, err := s.storage.Save(media.DirBlog, fh)
	if err != nil {
		return nil, upload("preview", err)
	}

	previous := ""
	post, err := s.db.UpdateBlogPost(id, func(p *model.BlogPost) error {
		previous = p.Preview
		p.Preview = name
		return nil
	})
	if err != nil {
		s.storage.Remove(name) // nolint:errcheck
		return nil, s.failure(err, "could not update blog post preview")
	}
	s.flush(ctx)

	if err = s.storage.Remove(previous); err != nil {
		s.log.WithField("post", post.ID).WithError(err).Warn("could not remove previous post preview")
	}

	return M{"post": serializer.BlogPost(post)}, nil
}

func (s *Blog) visible(viewer policy.Viewer, id string) (*model.BlogPost, error) {
	post, err := s.db.FindBlogPost(id)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, skerror.NotFound("Post not found.")
		}
		return nil, errors.Wrap(err, "could not get blog post")
	}

	if !policy.CanView(viewer, post.PolicyItem()) {
		return nil, skerror.NotFound("Post not found.")
	}
	return post, nil
}

func (s *Blog) failure(err error, message string) error {
	switch {
	case s.db.IsNotFound(err):
		return skerror.NotFound("Post not found.")
	case s.db.IsStale(err):
		return conflict("The post has been modified concurrently, reload it and try again.")
	}
	return errors.Wrap(err, message)
}

func (s *Blog) flush(ctx context.Context) {
	if err := s.cache.Flush(ctx, cache.NamespaceBlog); err != nil {
		s.log.WithError(err).Warn("could not flush blog cache")
	}
}

// BlogClass returns the cache class of the viewer for the blog listings.
func BlogClass(viewer policy.Viewer) string {
	if viewer.Has(policy.CanManageBlog) {
		return "manager"
	}
	return "public"
}
