package serializer

import (
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
)

// User serializes the render of a user with the capabilities it holds.
func User(m *model.User, viewer policy.Viewer) map[string]any {
	var dob any
	if m.DateOfBirth != nil {
		dob = m.DateOfBirth.Format("2006-01-02")
	}

	capabilities := []string{}
	for _, c := range viewer.Capabilities() {
		capabilities = append(capabilities, string(c))
	}

	return map[string]any{
		"id":            m.ID,
		"created_at":    timestamp(m.CreatedAt),
		"updated_at":    timestamp(m.UpdatedAt),
		"email":         m.Email,
		"username":      m.Username,
		"phone_number":  m.PhoneNumber,
		"first_name":    m.FirstName,
		"last_name":     m.LastName,
		"address":       m.Address,
		"country":       m.Country,
		"date_of_birth": dob,
		"avatar":        Media(m.Avatar),
		"is_staff":      m.IsStaff,
		"capabilities":  capabilities,
	}
}

// Tokens serializes the token pair of a session.
func Tokens(m *model.Session, accessToken string, accessExpireAt any) map[string]any {
	return map[string]any{
		"access_token":      accessToken,
		"access_expire_at":  accessExpireAt,
		"refresh_token":     m.RefreshToken,
		"refresh_expire_at": m.ExpireAt.UTC(),
	}
}
