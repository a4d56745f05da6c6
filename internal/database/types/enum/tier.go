package enum

import "fmt"

// Tier represents the role tier a user can hold after an aggregation cycle.
type Tier int

const (
	// TierNone means the user holds no tier role.
	TierNone Tier = iota
	// TierFirst is the single rank-1 role.
	TierFirst
	// TierOther is the role shared by ranks 2-6.
	TierOther
)

// String returns the lowercase name used in storage and card labels.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierFirst:
		return "first"
	case TierOther:
		return "other"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// TierString parses a stored tier name back into its enum value.
func TierString(s string) (Tier, error) {
	switch s {
	case "none":
		return TierNone, nil
	case "first":
		return TierFirst, nil
	case "other":
		return TierOther, nil
	default:
		return TierNone, fmt.Errorf("%s does not belong to Tier values", s)
	}
}
