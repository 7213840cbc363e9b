package listing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		in     Params
		want   Params
		offset int
	}{
		{name: "zero value", in: Params{}, want: Params{Page: 1, PageSize: DefaultPageSize}, offset: 0},
		{name: "third page", in: Params{Page: 3, PageSize: 10}, want: Params{Page: 3, PageSize: 10}, offset: 20},
		{name: "oversized page", in: Params{Page: 2, PageSize: 1000}, want: Params{Page: 2, PageSize: MaxPageSize}, offset: MaxPageSize},
		{name: "negative page", in: Params{Page: -4, PageSize: 5}, want: Params{Page: 1, PageSize: 5}, offset: 0},
		{name: "huge page", in: Params{Page: math.MaxInt, PageSize: 50}, want: Params{Page: MaxPage, PageSize: 50}, offset: (MaxPage - 1) * 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
			assert.Equal(t, tc.offset, tc.in.Offset())
			assert.Equal(t, tc.want.PageSize, tc.in.Limit())
		})
	}
}

func TestNewPage_NilItemsBecomeEmpty(t *testing.T) {
	p := NewPage[string](nil, Params{}, 0)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 1, p.Page)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "DESC", Direction("desc"))
	assert.Equal(t, "ASC", Direction("asc"))
	assert.Equal(t, "ASC", Direction("; DROP TABLE"))
}
