package utils

// Ptr returns a pointer to v. Handy for building partial-update inputs from
// literals.
func Ptr[T any](v T) *T {
	return &v
}
