package enums

// MutationKind names an optimistic change tracked until the backend settles it.
type MutationKind string

const (
	MutationKindInsert MutationKind = "insert"
	MutationKindUpdate MutationKind = "update"
	MutationKindRemove MutationKind = "remove"
	MutationKindClear  MutationKind = "clear"
)

// String implements fmt.Stringer.
func (m MutationKind) String() string {
	return string(m)
}
