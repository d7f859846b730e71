package entities

// Actor identifies who is invoking a privileged operation. The bridge knows a
// single operator identity; anything else fails the guard.
type Actor struct {
	Name string
	Key  string
}
