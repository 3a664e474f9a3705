package model

// A ContactInfo holds the company contact details displayed on the contacts page.
type ContactInfo struct {
	Base `msgpack:",inline" storm:"inline"`

	CompanyName  string `json:"company_name"  msgpack:"company_name"`
	Address      string `json:"address"       msgpack:"address"`
	Phone        string `json:"phone"         msgpack:"phone"`
	Email        string `json:"email"         msgpack:"email"`
	WorkingHours string `json:"working_hours" msgpack:"working_hours"`
	Description  string `json:"description"   msgpack:"description"`
	IsActive     bool   `json:"is_active"     msgpack:"is_active"     storm:"index"`
}

// DefaultContactInfo returns the contact details used when none is active.
func DefaultContactInfo() *ContactInfo {
	return &ContactInfo{
		CompanyName:  "Skystore",
		Address:      "г. Москва, ул. Примерная, д. 123, офис 456",
		Phone:        "+7 (495) 123-45-67",
		Email:        "info@skystore.ru",
		WorkingHours: "Пн-Пт: 9:00-18:00, Сб-Вс: 10:00-16:00",
		Description:  "Свяжитесь с нами для получения дополнительной информации.",
		IsActive:     true,
	}
}
