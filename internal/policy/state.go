package policy

import "time"

// A Variant tags the kind of catalog item a decision is made for.
type Variant string

const (
	// VariantProduct is a catalog product, always owned and moderated.
	VariantProduct Variant = "product"
	// VariantBlogPost is a blog post with a boolean publish state.
	VariantBlogPost Variant = "blog_post"
)

// A State is the publish state of an item.
type State string

// Publish states. Blog posts only use StatePublished and StateUnpublished.
const (
	StatePending     State = "pending"
	StatePublished   State = "published"
	StateRejected    State = "rejected"
	StateUnpublished State = "unpublished"
)

var states = map[Variant][]State{
	VariantProduct:  {StatePending, StatePublished, StateRejected, StateUnpublished},
	VariantBlogPost: {StatePublished, StateUnpublished},
}

// Valid returns true if v is a known variant.
func (v Variant) Valid() bool {
	_, ok := states[v]
	return ok
}

// States returns the closed enumeration of states for the given variant.
func States(v Variant) []State {
	return append([]State(nil), states[v]...)
}

// Member returns true if s belongs to the enumeration of the given variant.
func (s State) Member(v Variant) bool {
	for _, state := range states[v] {
		if s == state {
			return true
		}
	}
	return false
}

// ParseState converts the given name into a State of the given variant.
func ParseState(v Variant, name string) (State, error) {
	if !v.Valid() {
		return "", invalid("unknown variant %q", v)
	}

	s := State(name)
	if !s.Member(v) {
		return "", invalid("state %q is not a %s state", name, v)
	}
	return s, nil
}

// DefaultState returns the state of a newly created item of the given variant.
func DefaultState(v Variant) State {
	if v == VariantProduct {
		return StatePending
	}
	return StateUnpublished
}

// Toggle returns the state reached by flipping the publication of an item.
// Anything that is not published becomes published.
func Toggle(s State) State {
	if s == StatePublished {
		return StateUnpublished
	}
	return StatePublished
}

// An Item is the policy view of a product or a blog post.
type Item struct {
	ID      string
	Variant Variant
	// Owner is the identity of the creator, empty when the item has none.
	Owner     string
	State     State
	CreatedAt time.Time
}

// Published returns true if the item is publicly visible.
func (i Item) Published() bool {
	return i.State == StatePublished
}
