package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLinesClassifiesEachLine(t *testing.T) {
	lines := SplitLines("ALLOW any OUT tcp\n  # note\n\n  DENY any IN udp # trailing\n\tx#y")
	require.Len(t, lines, 5)

	assert.Equal(t, 1, lines[0].Number)
	assert.Equal(t, "ALLOW any OUT tcp", lines[0].Effective)
	assert.True(t, lines[1].IsBlankOrComment())
	assert.True(t, lines[2].IsBlankOrComment())
	assert.Equal(t, "DENY any IN udp", lines[3].Effective)
	assert.Equal(t, "  DENY any IN udp # trailing", lines[3].Raw)
	assert.Equal(t, "x", lines[4].Effective)
}

func TestSplitLinesEmptyText(t *testing.T) {
	lines := SplitLines("")
	require.Len(t, lines, 1)
	assert.True(t, lines[0].IsBlankOrComment())
}

func TestParseLeadingInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"80", 80, true},
		{"80abc", 80, true},
		{"+7", 7, true},
		{"-7", -7, true},
		{" 12", 12, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"99999999999999999999", 1_000_000, true},
	}
	for _, tc := range cases {
		got, ok := parseLeadingInt(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.GreaterOrEqual(t, got, tc.want, tc.in)
			if tc.want < 1_000_000 {
				assert.Equal(t, tc.want, got, tc.in)
			}
		}
	}
}
