package serializer

import "github.com/mdouchement/skystore/internal/model"

// Category serializes the render of a category.
func Category(m *model.Category) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"name":        m.Name,
		"description": m.Description,
	}
}

// Categories serializes the render of categories.
func Categories(m []*model.Category) []map[string]any {
	categories := make([]map[string]any, len(m))
	for i, c := range m {
		categories[i] = Category(c)
	}
	return categories
}

// Product serializes the render of a product.
func Product(m *model.Product) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"created_at":  timestamp(m.CreatedAt),
		"updated_at":  timestamp(m.UpdatedAt),
		"name":        m.Name,
		"description": m.Description,
		"image":       Media(m.Image),
		"price":       m.Price,
		"state":       m.State,
		"category_id": m.CategoryID,
		"owner_id":    m.OwnerID,
	}
}

// Products serializes the render of products.
func Products(m []*model.Product) []map[string]any {
	products := make([]map[string]any, len(m))
	for i, p := range m {
		products[i] = Product(p)
	}
	return products
}

// ContactInfo serializes the render of the contact details.
func ContactInfo(m *model.ContactInfo) map[string]any {
	return map[string]any{
		"company_name":  m.CompanyName,
		"address":       m.Address,
		"phone":         m.Phone,
		"email":         m.Email,
		"working_hours": m.WorkingHours,
		"description":   m.Description,
	}
}
