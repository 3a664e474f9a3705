package model

import "github.com/mdouchement/skystore/internal/policy"

// A BlogPost represents a blog entry.
type BlogPost struct {
	Base `msgpack:",inline" storm:"inline"`

	Title     string       `json:"title"      msgpack:"title"`
	Content   string       `json:"content"    msgpack:"content"`
	Preview   string       `json:"preview"    msgpack:"preview"`
	State     policy.State `json:"state"      msgpack:"state"     storm:"index"`
	ViewCount int          `json:"view_count" msgpack:"view_count"`
	// AuthorID is optional, posts loaded from fixtures have no author.
	AuthorID string `json:"author_id,omitempty" msgpack:"author_id,omitempty"`
}

// NewBlogPost returns an unpublished post.
func NewBlogPost(authorID string) *BlogPost {
	return &BlogPost{
		State:    policy.DefaultState(policy.VariantBlogPost),
		AuthorID: authorID,
	}
}

// Published returns true if the post is publicly visible.
func (p *BlogPost) Published() bool {
	return p.State == policy.StatePublished
}

// PolicyItem returns the post as seen by the visibility policy.
func (p *BlogPost) PolicyItem() policy.Item {
	return policy.Item{
		ID:        p.ID,
		Variant:   policy.VariantBlogPost,
		Owner:     p.AuthorID,
		State:     p.State,
		CreatedAt: createdAt(&p.Base),
	}
}
