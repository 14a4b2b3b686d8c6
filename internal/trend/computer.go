package trend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"caretrace-escalation/internal/models"
	"caretrace-escalation/internal/repository"

	"go.uber.org/zap"
)

// HistorySource 打卡历史来源（按 created_at 倒序返回，最新在前）
type HistorySource interface {
	FetchHistory(ctx context.Context, subjectID string, f repository.HistoryFilter) ([]models.CheckInRecord, error)
}

// Computer 趋势计算器
// 只读计算，可与升级评估及自身并发执行，无需协调
type Computer struct {
	history       HistorySource
	categorizer   Categorizer
	topCategories int
	location      *time.Location
	logger        *zap.Logger

	now func() time.Time // 测试注入
}

// NewComputer 创建趋势计算器
// location 决定逐日统计的自然日边界
func NewComputer(history HistorySource, categorizer Categorizer, topCategories int, location *time.Location, logger *zap.Logger) *Computer {
	if topCategories <= 0 {
		topCategories = 5
	}
	if location == nil {
		location = time.Local
	}
	return &Computer{
		history:       history,
		categorizer:   categorizer,
		topCategories: topCategories,
		location:      location,
		logger:        logger,
		now:           time.Now,
	}
}

// ComputeTrends 计算 subject 在最近 windowDays 天内的趋势
// 历史查询失败返回 ErrHistoryUnavailable（调用方按"无数据"处理，不崩溃）；
// 窗口内零记录是合法结果，不是错误
func (c *Computer) ComputeTrends(ctx context.Context, subjectID string, windowDays, maxRecords int) (*models.TrendResult, error) {
	if windowDays < 1 {
		windowDays = 1
	}

	windowEnd := c.now()
	windowStart := windowEnd.AddDate(0, 0, -windowDays)

	filter := repository.HistoryFilter{
		StartDate: &windowStart,
		EndDate:   &windowEnd,
	}
	if maxRecords > 0 {
		filter.Limit = &maxRecords
	}

	records, err := c.history.FetchHistory(ctx, subjectID, filter)
	if err != nil {
		if errors.Is(err, repository.ErrHistoryUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrHistoryUnavailable, err)
	}

	// 倒序 → 时间正序（序列构造需要，timestamp 相同时保持取数顺序）
	chronological := make([]models.CheckInRecord, len(records))
	for i, rec := range records {
		chronological[len(records)-1-i] = rec
	}

	result := &models.TrendResult{
		SubjectID:            subjectID,
		PainSeries:           []models.PainPoint{},
		EnergyCounts:         make(map[models.EnergyBucket]int),
		MoodCounts:           make(map[models.MoodBucket]int),
		CategoryTotals:       make(map[string]int),
		TopCategories:        []string{},
		CategoryDaily:        make(map[string][]models.DailyCount),
		TotalRecordsInWindow: len(records),
		WindowStart:          windowStart,
		WindowEnd:            windowEnd,
	}

	// 类别首次出现顺序（用于排名平局时的确定性）
	var categoryOrder []string
	firstSeen := make(map[string]int)
	// category → day → count
	dailyCounts := make(map[string]map[time.Time]int)

	for _, rec := range chronological {
		// 疼痛序列：每条带时间戳的记录一个点
		if !rec.CreatedAt.IsZero() {
			result.PainSeries = append(result.PainSeries, models.PainPoint{
				Timestamp: rec.CreatedAt,
				Value:     rec.PainLevel,
			})
		}

		// 直方图：缺失档位的记录不计入（不按零值重复计数）
		if rec.EnergyBucket != nil {
			result.EnergyCounts[*rec.EnergyBucket]++
		}
		if rec.MoodBucket != nil {
			result.MoodCounts[*rec.MoodBucket]++
		}

		// 症状类别统计
		if rec.SymptomsText == nil || *rec.SymptomsText == "" {
			continue
		}
		day := startOfDay(rec.CreatedAt, c.location)
		for _, tag := range c.categorizer.Categorize(*rec.SymptomsText) {
			if _, seen := firstSeen[tag]; !seen {
				firstSeen[tag] = len(categoryOrder)
				categoryOrder = append(categoryOrder, tag)
				dailyCounts[tag] = make(map[time.Time]int)
			}
			result.CategoryTotals[tag]++
			dailyCounts[tag][day]++
		}
	}

	// 类别排名：总计数降序，平局按首次出现顺序
	ranked := make([]string, len(categoryOrder))
	copy(ranked, categoryOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		ti, tj := result.CategoryTotals[ranked[i]], result.CategoryTotals[ranked[j]]
		if ti != tj {
			return ti > tj
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	// 逐日序列只保留前 N 类别（限制内存和渲染成本），总计数全部保留
	top := c.topCategories
	if top > len(ranked) {
		top = len(ranked)
	}
	result.TopCategories = ranked[:top]

	for _, tag := range result.TopCategories {
		days := make([]time.Time, 0, len(dailyCounts[tag]))
		for day := range dailyCounts[tag] {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		series := make([]models.DailyCount, 0, len(days))
		for _, day := range days {
			series = append(series, models.DailyCount{Day: day, Count: dailyCounts[tag][day]})
		}
		result.CategoryDaily[tag] = series
	}

	c.logger.Debug("Computed trends",
		zap.String("subject_id", subjectID),
		zap.Int("window_days", windowDays),
		zap.Int("records", len(records)),
		zap.Int("categories", len(categoryOrder)),
	)

	return result, nil
}

// startOfDay 返回 t 在指定时区的自然日起点
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
