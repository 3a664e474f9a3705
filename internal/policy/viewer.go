package policy

import "sort"

// A Capability is a named permission held by a viewer.
type Capability string

// Known capabilities.
const (
	CanManageBlog        Capability = "can_manage_blog"
	CanPublishBlogPost   Capability = "can_publish_blog_post"
	CanEditAnyBlogPost   Capability = "can_edit_any_blog_post"
	CanDeleteAnyBlogPost Capability = "can_delete_any_blog_post"
	CanUnpublishProduct  Capability = "can_unpublish_product"
)

var capabilities = []Capability{
	CanManageBlog,
	CanPublishBlogPost,
	CanEditAnyBlogPost,
	CanDeleteAnyBlogPost,
	CanUnpublishProduct,
}

// Capabilities returns all the known capabilities.
func Capabilities() []Capability {
	return append([]Capability(nil), capabilities...)
}

// BlogCapabilities returns the capabilities granted to content managers.
func BlogCapabilities() []Capability {
	return []Capability{CanManageBlog, CanPublishBlogPost, CanEditAnyBlogPost, CanDeleteAnyBlogPost}
}

// ParseCapability converts the given name into a known Capability.
func ParseCapability(name string) (Capability, error) {
	for _, c := range capabilities {
		if string(c) == name {
			return c, nil
		}
	}
	return "", invalid("unknown capability %q", name)
}

// A Viewer is the identity a decision is made for.
// The zero value is an anonymous viewer.
type Viewer struct {
	Authenticated bool
	Identity      string
	capabilities  map[Capability]struct{}
}

// Anonymous returns an unauthenticated viewer.
func Anonymous() Viewer {
	return Viewer{}
}

// NewViewer returns an authenticated viewer holding the given capabilities.
func NewViewer(identity string, caps ...Capability) Viewer {
	v := Viewer{
		Authenticated: true,
		Identity:      identity,
		capabilities:  make(map[Capability]struct{}, len(caps)),
	}
	for _, c := range caps {
		v.capabilities[c] = struct{}{}
	}
	return v
}

// Has returns true if the viewer is authenticated and holds the given capability.
// Authentication is a precondition: capabilities of an anonymous viewer are ignored.
func (v Viewer) Has(c Capability) bool {
	if !v.Authenticated {
		return false
	}
	_, ok := v.capabilities[c]
	return ok
}

// Capabilities returns the sorted capabilities held by the viewer.
func (v Viewer) Capabilities() []Capability {
	caps := make([]Capability, 0, len(v.capabilities))
	for c := range v.capabilities {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool {
		return caps[i] < caps[j]
	})
	return caps
}

// Owns returns true if the viewer is the owner of the given item.
func (v Viewer) Owns(item Item) bool {
	return v.Authenticated && item.Owner != "" && v.Identity == item.Owner
}
