package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drafter/internal/outline"
	"drafter/internal/router"
	"drafter/internal/version"
)

func newTestCycle(writer SectionWriter) *Cycle {
	c := NewCycle(router.New(router.DefaultPolicy()), outline.NewStaticProposer(), writer, []string{"pro", "small"})
	return c
}

func TestCycle_Run_CommitsGeneratedDocument(t *testing.T) {
	t.Setenv("DRAFTER_CPU_PERCENT", "20")

	writer := func(_ context.Context, req SectionRequest) (string, error) {
		return "body for " + req.Title, nil
	}
	c := newTestCycle(writer)

	sess := version.NewSession("doc-1")
	report, err := c.Run(context.Background(), sess, "年度报告", "", []string{"引言", "方法", "结论"}, 3000)
	require.NoError(t, err)

	assert.Equal(t, 8, report.Decision.WorkerCount)
	assert.NotEmpty(t, report.VersionID)
	assert.Equal(t, report.VersionID, sess.CurrentVersionID)
	assert.Contains(t, sess.DocText, "# 引言")
	assert.Contains(t, sess.DocText, "body for 方法")

	// simple task routes to the cheapest model
	assert.Equal(t, "small", report.Roles.Writer)
	require.Len(t, report.Sections, 3)
	for _, r := range report.Sections {
		assert.NoError(t, r.Err)
		assert.Equal(t, "small", r.Model)
	}

	total := 0
	for _, b := range report.Budgets {
		total += b.TokenBudget
	}
	assert.Equal(t, 1250, total) // ceil(3000/2.4)
}

func TestCycle_Run_FallsBackToNextModel(t *testing.T) {
	t.Setenv("DRAFTER_CPU_PERCENT", "20")

	writer := func(_ context.Context, req SectionRequest) (string, error) {
		if req.Model == "small" {
			return "", fmt.Errorf("small is down")
		}
		return "fallback body", nil
	}
	c := newTestCycle(writer)

	sess := version.NewSession("doc-1")
	report, err := c.Run(context.Background(), sess, "报告", "", []string{"引言"}, 1000)
	require.NoError(t, err)

	require.Len(t, report.Sections, 1)
	assert.NoError(t, report.Sections[0].Err)
	assert.Equal(t, "pro", report.Sections[0].Model)
}

func TestCycle_Run_AllModelsFailingYieldsPlaceholder(t *testing.T) {
	t.Setenv("DRAFTER_CPU_PERCENT", "20")

	writer := func(_ context.Context, _ SectionRequest) (string, error) {
		return "", fmt.Errorf("unavailable")
	}
	c := newTestCycle(writer)

	sess := version.NewSession("doc-1")
	report, err := c.Run(context.Background(), sess, "报告", "", []string{"引言"}, 1000)
	require.NoError(t, err)

	require.Len(t, report.Sections, 1)
	assert.Error(t, report.Sections[0].Err)
	assert.Contains(t, sess.DocText, "本节内容待补充")
	assert.NotEmpty(t, report.VersionID)
}

func TestCycle_Run_NoSections(t *testing.T) {
	c := newTestCycle(StaticWriter)
	sess := version.NewSession("doc-1")
	_, err := c.Run(context.Background(), sess, "报告", "", nil, 1000)
	assert.Error(t, err)
}

func TestCycle_WriteStage_BoundsConcurrency(t *testing.T) {
	t.Setenv("DRAFTER_CPU_PERCENT", "90") // 2 workers with backpressure

	var active, peak int64
	var mu sync.Mutex
	writer := func(_ context.Context, req SectionRequest) (string, error) {
		cur := atomic.AddInt64(&active, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		defer atomic.AddInt64(&active, -1)
		return "x " + req.Title, nil
	}
	c := newTestCycle(writer)

	sess := version.NewSession("doc-1")
	sections := []string{"背景", "方法", "设计", "实现", "测试", "总结"}
	report, err := c.Run(context.Background(), sess, "报告", "", sections, 6000)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Decision.WorkerCount)
	assert.True(t, report.Decision.QueueBackpressure)
	mu.Lock()
	assert.LessOrEqual(t, peak, int64(2))
	mu.Unlock()
}

func TestStaticWriter_UsesKeyPoints(t *testing.T) {
	text, err := StaticWriter(context.Background(), SectionRequest{
		Title:       "方法",
		KeyPoints:   []string{"定义研究范围", "说明数据来源"},
		TargetChars: 200,
	})
	require.NoError(t, err)
	assert.Contains(t, text, "定义研究范围")
	assert.Contains(t, text, "说明数据来源")
	assert.GreaterOrEqual(t, len([]rune(text)), 100)
}

func TestAssembleDocument_PreservesSectionOrder(t *testing.T) {
	body := assembleDocument(
		[]string{"A", "B"},
		[]SectionResult{{Title: "B", Text: "second"}, {Title: "A", Text: "first"}},
	)
	first := strings.Index(body, "# A")
	second := strings.Index(body, "# B")
	assert.True(t, first >= 0 && second > first)
	assert.Contains(t, body, "first")
	assert.Contains(t, body, "second")
}
