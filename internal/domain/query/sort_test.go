package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	cases := []struct {
		in   string
		want Sort
	}{
		{"-created_date", Sort{Field: "created_date", Desc: true}},
		{"name", Sort{Field: "name"}},
		{"  -last_tested ", Sort{Field: "last_tested", Desc: true}},
		{"", Sort{}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParseSort(tc.in)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSortString(t *testing.T) {
	assert.Equal(t, "-created_date", Desc("created_date").String())
	assert.Equal(t, "name", Sort{Field: "name"}.String())
	assert.Equal(t, "", Sort{}.String())
	assert.True(t, Sort{}.IsZero())
}
