package trend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"caretrace-escalation/internal/models"
	"caretrace-escalation/internal/repository"
)

// fakeHistorySource 仅用于单元测试
type fakeHistorySource struct {
	records []models.CheckInRecord // 最新在前
	err     error

	gotFilter repository.HistoryFilter
}

func (f *fakeHistorySource) FetchHistory(ctx context.Context, subjectID string, filter repository.HistoryFilter) ([]models.CheckInRecord, error) {
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestComputer(source HistorySource, fixedNow time.Time) *Computer {
	c := NewComputer(source, NewKeywordCategorizer(), 5, time.UTC, zap.NewNop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func strPtr(s string) *string { return &s }

func energyPtr(b models.EnergyBucket) *models.EnergyBucket { return &b }

func moodPtr(b models.MoodBucket) *models.MoodBucket { return &b }

func TestComputeTrends_EmptyWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	source := &fakeHistorySource{}
	c := newTestComputer(source, now)

	result, err := c.ComputeTrends(context.Background(), "subj-1", 30, 200)

	// 零记录是合法结果，不是错误
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalRecordsInWindow)
	assert.Empty(t, result.PainSeries)
	assert.Empty(t, result.EnergyCounts)
	assert.Empty(t, result.MoodCounts)
	assert.Empty(t, result.CategoryTotals)
	assert.Empty(t, result.TopCategories)
	assert.Empty(t, result.CategoryDaily)
	assert.Equal(t, now, result.WindowEnd)
	assert.Equal(t, now.AddDate(0, 0, -30), result.WindowStart)
}

func TestComputeTrends_HistoryUnavailable(t *testing.T) {
	source := &fakeHistorySource{err: errors.New("connection refused")}
	c := newTestComputer(source, time.Now())

	result, err := c.ComputeTrends(context.Background(), "subj-1", 30, 200)

	// 查询失败不产生部分结果
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrHistoryUnavailable))
	assert.Nil(t, result)
}

func TestComputeTrends_WrappedHistoryErrorPassesThrough(t *testing.T) {
	source := &fakeHistorySource{
		err: repository.ErrHistoryUnavailable,
	}
	c := newTestComputer(source, time.Now())

	_, err := c.ComputeTrends(context.Background(), "subj-1", 7, 50)
	assert.True(t, errors.Is(err, repository.ErrHistoryUnavailable))
}

func TestComputeTrends_PainSeriesChronological(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	// source 返回最新在前，序列应被反转为时间正序
	source := &fakeHistorySource{records: []models.CheckInRecord{
		{ID: "c3", SubjectID: "subj-1", CreatedAt: now.Add(-1 * time.Hour), PainLevel: 7},
		{ID: "c2", SubjectID: "subj-1", CreatedAt: now.Add(-25 * time.Hour), PainLevel: 4},
		{ID: "c1", SubjectID: "subj-1", CreatedAt: now.Add(-49 * time.Hour), PainLevel: 2},
	}}
	c := newTestComputer(source, now)

	result, err := c.ComputeTrends(context.Background(), "subj-1", 30, 200)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRecordsInWindow)
	require.Len(t, result.PainSeries, 3)
	assert.Equal(t, 2, result.PainSeries[0].Value)
	assert.Equal(t, 4, result.PainSeries[1].Value)
	assert.Equal(t, 7, result.PainSeries[2].Value)

	// 时间戳非递减
	for i := 1; i < len(result.PainSeries); i++ {
		assert.False(t, result.PainSeries[i].Timestamp.Before(result.PainSeries[i-1].Timestamp))
	}
}

func TestComputeTrends_Histograms(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	source := &fakeHistorySource{records: []models.CheckInRecord{
		{ID: "c4", CreatedAt: now.Add(-1 * time.Hour), PainLevel: 5, EnergyBucket: energyPtr(models.EnergyLow), MoodBucket: moodPtr(models.MoodSad)},
		{ID: "c3", CreatedAt: now.Add(-2 * time.Hour), PainLevel: 5, EnergyBucket: energyPtr(models.EnergyLow)},
		{ID: "c2", CreatedAt: now.Add(-3 * time.Hour), PainLevel: 5, MoodBucket: moodPtr(models.MoodGood)},
		{ID: "c1", CreatedAt: now.Add(-4 * time.Hour), PainLevel: 5},
	}}
	c := newTestComputer(source, now)

	result, err := c.ComputeTrends(context.Background(), "subj-1", 7, 100)

	require.NoError(t, err)
	// 缺失档位的记录不计入对应直方图
	assert.Equal(t, 2, result.EnergyCounts[models.EnergyLow])
	assert.Equal(t, 1, result.MoodCounts[models.MoodSad])
	assert.Equal(t, 1, result.MoodCounts[models.MoodGood])

	// 直方图计数之和不超过记录总数
	energySum := 0
	for _, n := range result.EnergyCounts {
		energySum += n
	}
	moodSum := 0
	for _, n := range result.MoodCounts {
		moodSum += n
	}
	assert.LessOrEqual(t, energySum, result.TotalRecordsInWindow)
	assert.LessOrEqual(t, moodSum, result.TotalRecordsInWindow)
}

func TestComputeTrends_CategoryTotalsAndDaily(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	day1 := now.Add(-50 * time.Hour) // 6月13日
	day2 := now.Add(-26 * time.Hour) // 6月14日
	source := &fakeHistorySource{records: []models.CheckInRecord{
		{ID: "c3", CreatedAt: day2.Add(time.Hour), PainLevel: 3, SymptomsText: strPtr("headache and nausea")},
		{ID: "c2", CreatedAt: day2, PainLevel: 3, SymptomsText: strPtr("still aching")},
		{ID: "c1", CreatedAt: day1, PainLevel: 3, SymptomsText: strPtr("sore back")},
	}}
	c := newTestComputer(source, now)

	result, err := c.ComputeTrends(context.Background(), "subj-1", 7, 100)

	require.NoError(t, err)
	assert.Equal(t, 3, result.CategoryTotals[CategoryPain])
	assert.Equal(t, 1, result.CategoryTotals[CategoryNausea])

	// 排名：pain(3) > nausea(1)
	require.Len(t, result.TopCategories, 2)
	assert.Equal(t, CategoryPain, result.TopCategories[0])
	assert.Equal(t, CategoryNausea, result.TopCategories[1])

	// pain 的逐日序列：6月13日 1 次，6月14日 2 次，按日期正序
	painDaily := result.CategoryDaily[CategoryPain]
	require.Len(t, painDaily, 2)
	assert.True(t, painDaily[0].Day.Before(painDaily[1].Day))
	assert.Equal(t, 1, painDaily[0].Count)
	assert.Equal(t, 2, painDaily[1].Count)
}

func TestComputeTrends_TopCategoriesCapped(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	// 6 个不同类别，每个 1 次；逐日序列只保留 5 个，总计数全部保留
	texts := []string{"headache", "nauseous", "insomnia", "coughing", "no appetite for food", "exhausted"}
	var records []models.CheckInRecord
	for i, text := range texts {
		records = append(records, models.CheckInRecord{
			ID:           string(rune('a' + i)),
			CreatedAt:    now.Add(-time.Duration(i+1) * time.Hour),
			PainLevel:    2,
			SymptomsText: strPtr(text),
		})
	}
	source := &fakeHistorySource{records: records}
	c := newTestComputer(source, now)

	result, err := c.ComputeTrends(context.Background(), "subj-1", 7, 100)

	require.NoError(t, err)
	assert.Len(t, result.CategoryTotals, 6)
	assert.Len(t, result.TopCategories, 5)
	assert.Len(t, result.CategoryDaily, 5)

	// 全部平局（各 1 次），按首次出现顺序（时间正序：exhausted 最早）
	assert.Equal(t, CategoryFatigue, result.TopCategories[0])
}

func TestComputeTrends_MinimumWindowOneDay(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	source := &fakeHistorySource{}
	c := newTestComputer(source, now)

	result, err := c.ComputeTrends(context.Background(), "subj-1", 0, 50)

	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -1), result.WindowStart)
	require.NotNil(t, source.gotFilter.StartDate)
	require.NotNil(t, source.gotFilter.Limit)
	assert.Equal(t, 50, *source.gotFilter.Limit)
}
