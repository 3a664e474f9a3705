// Package policy decides what a viewer may see and do with catalog items.
//
// Every decision is a pure function of a Viewer and an Item: nothing is cached and
// nothing is written. Callers perform the mutation after a successful check.
package policy

// Moderator returns the capability that grants full visibility over the given variant.
func Moderator(v Variant) Capability {
	if v == VariantBlogPost {
		return CanManageBlog
	}
	return CanUnpublishProduct
}

// CanView returns true if the viewer may see the item in listings and detail pages.
// Callers must treat a false result exactly like a missing item.
func CanView(viewer Viewer, item Item) bool {
	if !item.Variant.Valid() {
		return false
	}

	if item.Published() {
		return true
	}

	if viewer.Has(Moderator(item.Variant)) {
		return true
	}

	// Blog posts have no per-post ownership regarding visibility.
	return item.Variant == VariantProduct && viewer.Owns(item)
}

// Filter returns the items visible by the viewer, preserving their order.
func Filter(viewer Viewer, items []Item) []Item {
	visible := make([]Item, 0, len(items))
	for _, item := range items {
		if CanView(viewer, item) {
			visible = append(visible, item)
		}
	}
	return visible
}

// CanTransition checks whether the viewer may move the item to the target state.
// An out-of-enumeration target is reported as ErrInvalidArgument whatever the viewer holds.
func CanTransition(viewer Viewer, item Item, target State) error {
	if !item.Variant.Valid() {
		return invalid("unknown variant %q", item.Variant)
	}

	if !target.Member(item.Variant) {
		return invalid("state %q is not a %s state", target, item.Variant)
	}

	switch item.Variant {
	case VariantBlogPost:
		if !viewer.Has(CanPublishBlogPost) {
			return denied("%s is required to change the publication of a blog post", CanPublishBlogPost)
		}
	case VariantProduct:
		if !viewer.Has(CanUnpublishProduct) {
			return denied("%s is required to change the publication of a product", CanUnpublishProduct)
		}
	}

	return nil
}

// Targets returns the states the viewer may move the item to.
// The current state is excluded.
func Targets(viewer Viewer, item Item) []State {
	var targets []State
	for _, s := range States(item.Variant) {
		if s == item.State {
			continue
		}
		if CanTransition(viewer, item, s) == nil {
			targets = append(targets, s)
		}
	}
	return targets
}

// CanEdit checks whether the viewer may mutate all the fields of the item.
func CanEdit(viewer Viewer, item Item) error {
	capability := CanUnpublishProduct
	if item.Variant == VariantBlogPost {
		capability = CanEditAnyBlogPost
	}
	return ownerOr(viewer, item, capability, "edit")
}

// CanDelete checks whether the viewer may delete the item.
func CanDelete(viewer Viewer, item Item) error {
	capability := CanUnpublishProduct
	if item.Variant == VariantBlogPost {
		capability = CanDeleteAnyBlogPost
	}
	return ownerOr(viewer, item, capability, "delete")
}

// CanCreate checks whether the viewer may create an item of the given variant.
func CanCreate(viewer Viewer, v Variant) error {
	switch v {
	case VariantProduct:
		if !viewer.Authenticated {
			return denied("authentication is required to create a product")
		}
	case VariantBlogPost:
		if !viewer.Has(CanManageBlog) {
			return denied("%s is required to create a blog post", CanManageBlog)
		}
	default:
		return invalid("unknown variant %q", v)
	}
	return nil
}

func ownerOr(viewer Viewer, item Item, capability Capability, action string) error {
	if !item.Variant.Valid() {
		return invalid("unknown variant %q", item.Variant)
	}

	if viewer.Owns(item) || viewer.Has(capability) {
		return nil
	}
	return denied("only the owner or a holder of %s can %s this %s", capability, action, item.Variant)
}
