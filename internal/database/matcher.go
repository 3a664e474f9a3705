package database

import (
	"github.com/asdine/storm/v3/q"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/pkg/errors"
)

type visibility struct {
	viewer policy.Viewer
}

// VisibleTo returns a matcher keeping only the records the viewer can see.
// It applies policy.CanView on products and blog posts.
func VisibleTo(viewer policy.Viewer) q.Matcher {
	return &visibility{viewer: viewer}
}

// Match implements q.Matcher.
func (m *visibility) Match(i any) (bool, error) {
	var item policy.Item
	switch v := i.(type) {
	case *model.Product:
		item = v.PolicyItem()
	case model.Product:
		item = v.PolicyItem()
	case *model.BlogPost:
		item = v.PolicyItem()
	case model.BlogPost:
		item = v.PolicyItem()
	default:
		return false, errors.Errorf("visibility does not apply to %T", i)
	}

	return policy.CanView(m.viewer, item), nil
}
