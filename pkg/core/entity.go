// pkg/core/entity.go
package core

// Entity is the shape shared by units, buildings and features. It lets the
// resolvers treat whatever a Target points at uniformly.
type Entity interface {
	Ref() Target
	Type() ID
	Where() (location *ID, at Point)
	OwnedBy() *ID
	// Stock is the carried, stored or remaining resources. It is never nil.
	Stock() Resources
	Vitals() *Health
}

// SameSquare reports whether two entities share a map and coordinates.
func SameSquare(a, b Entity) bool {
	la, pa := a.Where()
	lb, pb := b.Where()
	return la != nil && lb != nil && *la == *lb && pa == pb
}

// SameOwner compares nullable owners. Two nil owners are not equal: unowned
// things are nobody's friends.
func SameOwner(a, b *ID) bool {
	return a != nil && b != nil && *a == *b
}

// Ptr returns a pointer to id.
func Ptr(id ID) *ID {
	return &id
}
