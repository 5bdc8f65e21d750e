package types

import "fmt"

// ItemID is the stable identifier of an item in the project model.
type ItemID string

// Item is a node of the project model that can export content or compose
// other items.
type Item struct {
	ID   ItemID
	Name string
	// Root is the absolute folder the item's exported paths are relative to.
	Root string
}

// ItemModel resolves items and answers composition queries. It is passed
// explicitly wherever a stored id must be turned back into an item.
type ItemModel interface {
	Item(id ItemID) (Item, bool)
	Components(composite ItemID) []Item
	IsComponent(composite, id ItemID) bool
}

// LinkTypeComponent is the link type between a composite and its
// components.
const LinkTypeComponent = "component"

// Link ties a composite to one of its components for one link type.
type Link struct {
	Source      ItemID `yaml:"source" toml:"source"`
	Type        string `yaml:"type" toml:"type"`
	Destination ItemID `yaml:"destination" toml:"destination"`
}

// Key is the identity used by link sets.
func (l Link) Key() string {
	return string(l.Source) + "\x00" + l.Type + "\x00" + string(l.Destination)
}

func (l Link) String() string {
	return fmt.Sprintf("%s -%s-> %s", l.Source, l.Type, l.Destination)
}

// ComponentLink is the link of composite to component.
func ComponentLink(composite, component ItemID) Link {
	return Link{Source: composite, Type: LinkTypeComponent, Destination: component}
}
