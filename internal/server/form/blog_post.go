package form

import (
	"strings"

	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
)

// A BlogPost is the form used to create and edit blog posts.
type BlogPost struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published"`
}

// Validate checks the form.
func (f *BlogPost) Validate() error {
	errs := Errors{}
	f.Title = strings.TrimSpace(f.Title)

	if errs.required("title", f.Title) {
		errs.maxLength("title", f.Title, 200)
	}
	errs.required("content", f.Content)

	return errs.Err()
}

// Apply copies the form values to the post.
func (f *BlogPost) Apply(p *model.BlogPost) {
	p.Title = f.Title
	p.Content = f.Content
}

// Target returns the publication state requested by the form, if any.
func (f *BlogPost) Target() (policy.State, bool) {
	if f.Published == nil {
		return "", false
	}
	if *f.Published {
		return policy.StatePublished, true
	}
	return policy.StateUnpublished, true
}
