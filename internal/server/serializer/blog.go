package serializer

import "github.com/mdouchement/skystore/internal/model"

// BlogPost serializes the render of a blog post.
func BlogPost(m *model.BlogPost) map[string]any {
	r := BlogPostSummary(m)
	r["content"] = m.Content
	r["view_count"] = m.ViewCount
	return r
}

// BlogPostSummary serializes the render of a blog post in a listing.
// The view counter is left out so listings are not invalidated by every read.
func BlogPostSummary(m *model.BlogPost) map[string]any {
	return map[string]any{
		"id":           m.ID,
		"created_at":   timestamp(m.CreatedAt),
		"updated_at":   timestamp(m.UpdatedAt),
		"title":        m.Title,
		"preview":      Media(m.Preview),
		"is_published": m.Published(),
	}
}

// BlogPosts serializes the render of blog posts in a listing.
func BlogPosts(m []*model.BlogPost) []map[string]any {
	posts := make([]map[string]any, len(m))
	for i, p := range m {
		posts[i] = BlogPostSummary(p)
	}
	return posts
}
