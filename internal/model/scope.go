package model

// ResourceScope says which resources a block applies to: a single
// resource or every resource at once.  It replaces a nullable resource
// id so that the "applies globally" case is explicit at every match
// site instead of hiding behind a nil check.
type ResourceScope struct {
	id  uint64
	all bool
}

// AllResources returns a scope covering every resource.
func AllResources() ResourceScope { return ResourceScope{all: true} }

// OneResource returns a scope covering only the given resource.
func OneResource(id uint64) ResourceScope { return ResourceScope{id: id} }

// IsAll reports whether the scope covers every resource.
func (s ResourceScope) IsAll() bool { return s.all }

// ResourceID returns the specific resource id and true, or 0 and false
// for a global scope.
func (s ResourceScope) ResourceID() (uint64, bool) {
	if s.all {
		return 0, false
	}
	return s.id, true
}

// Covers reports whether the scope applies to the given resource.
func (s ResourceScope) Covers(resourceID uint64) bool {
	return s.all || s.id == resourceID
}
