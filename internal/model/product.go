package model

import "github.com/mdouchement/skystore/internal/policy"

// A Product represents a catalog entry owned by the user who created it.
type Product struct {
	Base `msgpack:",inline" storm:"inline"`

	Name        string       `json:"name"        msgpack:"name"`
	Description string       `json:"description" msgpack:"description"`
	Image       string       `json:"image"       msgpack:"image"`
	Price       Money        `json:"price"       msgpack:"price"`
	State       policy.State `json:"state"       msgpack:"state"       storm:"index"`
	CategoryID  string       `json:"category_id" msgpack:"category_id" storm:"index"`
	OwnerID     string       `json:"owner_id"    msgpack:"owner_id"    storm:"index"`
}

// NewProduct returns a product waiting for moderation.
func NewProduct(ownerID string) *Product {
	return &Product{
		State:   policy.DefaultState(policy.VariantProduct),
		OwnerID: ownerID,
	}
}

// PolicyItem returns the product as seen by the visibility policy.
func (p *Product) PolicyItem() policy.Item {
	return policy.Item{
		ID:        p.ID,
		Variant:   policy.VariantProduct,
		Owner:     p.OwnerID,
		State:     p.State,
		CreatedAt: createdAt(&p.Base),
	}
}
