package model

// A Category groups products.
type Category struct {
	Base `msgpack:",inline" storm:"inline"`

	Name        string `json:"name"        msgpack:"name"        storm:"index"`
	Description string `json:"description" msgpack:"description"`
}
