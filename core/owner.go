package core

// Owner is the user name recorded on an entity when it is created.
// It is compared by exact, case-sensitive equality.
type Owner string

// MaxOwnerLength is the longest user name that can own an entity.
const MaxOwnerLength = 100

// Anonymous reports whether the owner is unset.
func (o Owner) Anonymous() bool {
	return o == ""
}

func (o Owner) String() string {
	return string(o)
}

// Authorize returns nil when caller owns the entity and ErrForbidden otherwise.
// An ownerless entity can never be mutated through Authorize, and an
// unauthenticated caller is never allowed.
func Authorize(owner, caller Owner) error {
	if owner.Anonymous() || caller.Anonymous() {
		return ErrForbidden
	}
	if owner != caller {
		return ErrForbidden
	}
	return nil
}
