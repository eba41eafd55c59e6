package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		total   int
		want    []int
		wantErr bool
	}{
		{name: "all keyword", input: "all", total: 3, want: []int{0, 1, 2}},
		{name: "all uppercase", input: "ALL", total: 2, want: []int{0, 1}},
		{name: "empty means all", input: "  ", total: 2, want: []int{0, 1}},
		{name: "single", input: "2", total: 5, want: []int{1}},
		{name: "range", input: "2-4", total: 5, want: []int{1, 2, 3}},
		{name: "combo", input: "1,3,5-8,10", total: 10, want: []int{0, 2, 4, 5, 6, 7, 9}},
		{name: "duplicates collapse", input: "3,3,2-3", total: 5, want: []int{1, 2}},
		{name: "spaces tolerated", input: " 1 , 3 - 4 ", total: 5, want: []int{0, 2, 3}},
		{name: "zero position", input: "0", total: 5, wantErr: true},
		{name: "out of range", input: "6", total: 5, wantErr: true},
		{name: "reversed range", input: "4-2", total: 5, wantErr: true},
		{name: "garbage", input: "abc", total: 5, wantErr: true},
		{name: "only commas", input: ",,,", total: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.total)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_EmptySet(t *testing.T) {
	_, err := Parse("all", 0)
	require.Error(t, err)
}
