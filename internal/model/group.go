package model

// A Group represents a named set of capabilities shared by its members.
type Group struct {
	Base `msgpack:",inline" storm:"inline"`

	Name         string   `json:"name"         msgpack:"name"         storm:"unique"`
	Capabilities []string `json:"capabilities" msgpack:"capabilities"`
}

// ContentManagerGroup is the name of the group holding all the blog capabilities.
const ContentManagerGroup = "content-manager"

// AddCapability grants the given capability name to the group members.
func (g *Group) AddCapability(name string) bool {
	n := len(g.Capabilities)
	g.Capabilities = appendUnique(g.Capabilities, name)
	return len(g.Capabilities) != n
}
