// Package location derives storage keys from free-text office locations.
package location

import "strings"

const (
	floorPrefix = "floor"
	tableSuffix = "_table"
)

// GenerateTableName returns the canonical storage key for an
// (office, building, floor) triple. Every character outside [A-Za-z0-9] is
// replaced by an underscore, and a leading "floor" on the floor value is
// dropped once so that "Floor3" and "3" map to the same key.
//
//	GenerateTableName("HQ", "Tower A", "Floor3") == "HQ_Tower_A_Floor3_table"
func GenerateTableName(office, building, floor string) string {
	cleanFloor := sanitize(floor)
	if strings.HasPrefix(strings.ToLower(cleanFloor), floorPrefix) {
		cleanFloor = cleanFloor[len(floorPrefix):]
	}

	return sanitize(office) + "_" + sanitize(building) + "_Floor" + cleanFloor + tableSuffix
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAlphanumeric(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
