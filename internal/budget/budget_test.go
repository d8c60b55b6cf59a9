package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokenCount(t *testing.T) {
	assert.Equal(t, 0, EstimateTokenCount(""))
	assert.Equal(t, 0, EstimateTokenCount("   \n\t"))
	assert.Equal(t, 1, EstimateTokenCount("a"))
	// 24 chars / 2.4 = 10
	assert.Equal(t, 10, EstimateTokenCount(strings.Repeat("x", 24)))
	// 25 chars / 2.4 = 10.41... -> 11
	assert.Equal(t, 11, EstimateTokenCount(strings.Repeat("x", 25)))
	// CJK counts characters, not bytes: 12 runes / 2.4 = 5
	assert.Equal(t, 5, EstimateTokenCount(strings.Repeat("系统设计", 3)))
}

func TestAllocateTokenBudget_WeightsAndRemainder(t *testing.T) {
	got := AllocateTokenBudget([]string{"A", "BB"}, 300)
	require.Len(t, got, 2)
	assert.Equal(t, SectionBudget{Section: "A", TokenBudget: 100}, got[0])
	assert.Equal(t, SectionBudget{Section: "BB", TokenBudget: 200}, got[1])
}

func TestAllocateTokenBudget_Conservation(t *testing.T) {
	cases := []struct {
		sections []string
		total    int
	}{
		{[]string{"引言", "系统总体设计", "结论"}, 4096},
		{[]string{"Overview", "Method", "Results", "Conclusion"}, 1000},
		{[]string{"x"}, 256},
		{[]string{"aa", "bb", "cc", "dd"}, 300},
		{[]string{"Short", "A much longer section title"}, 50}, // below the 256 floor
	}
	for _, tc := range cases {
		got := AllocateTokenBudget(tc.sections, tc.total)
		want := tc.total
		if want < 256 {
			want = 256
		}
		sum := 0
		for _, b := range got {
			sum += b.TokenBudget
			assert.GreaterOrEqual(t, b.TokenBudget, 64)
		}
		assert.Equal(t, want, sum, "sections=%v total=%d", tc.sections, tc.total)
	}
}

func TestAllocateTokenBudget_DropsBlankSections(t *testing.T) {
	got := AllocateTokenBudget([]string{" ", "", "Real"}, 500)
	require.Len(t, got, 1)
	assert.Equal(t, "Real", got[0].Section)
	assert.Equal(t, 500, got[0].TokenBudget)

	assert.Nil(t, AllocateTokenBudget(nil, 500))
}

func TestCompressContext_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "hello", CompressContext("  hello  ", 100, nil))
}

func TestCompressContext_PreservesKeywordsAndTail(t *testing.T) {
	lines := []string{"requirement: keep me"}
	for i := 0; i < 200; i++ {
		lines = append(lines, "filler line with nothing interesting")
	}
	lines = append(lines, "the very last line")
	text := strings.Join(lines, "\n")

	got := CompressContext(text, 400, []string{"requirement"})
	assert.LessOrEqual(t, len([]rune(got)), 400+8)
	assert.Contains(t, got, "requirement: keep me")
	assert.Contains(t, got, "the very last line")
	assert.Contains(t, got, "\n...\n")
}

func TestCompressContext_NoKeywordsKeepsTailOnly(t *testing.T) {
	text := strings.Repeat("abcdefghij\n", 100)
	got := CompressContext(text, 120, nil)
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "abcdefghij"))
}
