package enums

// StoreState is the lifecycle position of a reconciling store.
type StoreState string

const (
	StoreStateEmpty   StoreState = "empty"
	StoreStateLoading StoreState = "loading"
	StoreStateLive    StoreState = "live"
)

// String implements fmt.Stringer.
func (s StoreState) String() string {
	return string(s)
}

// AcceptsMutations reports whether optimistic writes may be applied.
func (s StoreState) AcceptsMutations() bool {
	return s == StoreStateLoading || s == StoreStateLive
}
