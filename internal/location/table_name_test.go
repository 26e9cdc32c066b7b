package location_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/desk-reserve/backend/internal/location"
)

func Test_GenerateTableName(t *testing.T) {
	tests := []struct {
		name     string
		office   string
		building string
		floor    string
		want     string
	}{
		{
			name:     "floor_prefix_is_stripped_once",
			office:   "HQ",
			building: "Tower A",
			floor:    "Floor3",
			want:     "HQ_Tower_A_Floor3_table",
		},
		{
			name:     "bare_floor_number",
			office:   "HQ",
			building: "Tower A",
			floor:    "3",
			want:     "HQ_Tower_A_Floor3_table",
		},
		{
			name:     "prefix_match_is_case_insensitive",
			office:   "Pune",
			building: "B1",
			floor:    "FLOOR 2",
			want:     "Pune_B1_Floor_2_table",
		},
		{
			name:     "only_the_first_prefix_is_removed",
			office:   "HQ",
			building: "Main",
			floor:    "FloorFloor1",
			want:     "HQ_Main_FloorFloor1_table",
		},
		{
			name:     "special_characters_become_underscores",
			office:   "New York (NY)",
			building: "5th-Ave.",
			floor:    "Level #7",
			want:     "New_York__NY__5th_Ave__FloorLevel__7_table",
		},
		{
			name:     "multibyte_characters_become_single_underscores",
			office:   "Zürich",
			building: "Büro",
			floor:    "1",
			want:     "Z_rich_B_ro_Floor1_table",
		},
		{
			name:     "empty_inputs",
			office:   "",
			building: "",
			floor:    "",
			want:     "__Floor_table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, location.GenerateTableName(tt.office, tt.building, tt.floor))
		})
	}
}

func Test_GenerateTableName_IsDeterministicAndSafe(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	inputs := [][3]string{
		{"HQ", "Tower A", "Floor3"},
		{"Bengaluru; DROP TABLE bookings", "Block-C", "floor 10"},
		{"Office/1", "Bldg\t2", "Étage 4"},
	}

	for _, in := range inputs {
		first := location.GenerateTableName(in[0], in[1], in[2])
		second := location.GenerateTableName(in[0], in[1], in[2])

		assert.Equal(t, first, second)
		assert.Regexp(t, valid, first)
	}
}
