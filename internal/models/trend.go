package models

import (
	"time"
)

// PainPoint 疼痛时间序列中的一个点
// 序列不变量：按时间戳非递减排列（同时间戳保持取数顺序）
type PainPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int       `json:"value"`
}

// DailyCount 某一天（自然日起点）的计数
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// TrendResult 趋势计算结果（一次计算一个 subject，调用方临时持有）
type TrendResult struct {
	SubjectID string `json:"subject_id"`

	// 疼痛序列（时间正序）
	PainSeries []PainPoint `json:"pain_series"`

	// 精力/情绪分布（缺失档位的记录不计入对应直方图）
	EnergyCounts map[EnergyBucket]int `json:"energy_counts"`
	MoodCounts   map[MoodBucket]int   `json:"mood_counts"`

	// 症状类别统计：全部类别的总计数 + 排名前 N 类别的逐日序列
	CategoryTotals map[string]int          `json:"category_totals"`
	TopCategories  []string                `json:"top_categories"`
	CategoryDaily  map[string][]DailyCount `json:"category_daily"`

	// 窗口信息
	TotalRecordsInWindow int       `json:"total_records_in_window"`
	WindowStart          time.Time `json:"window_start"`
	WindowEnd            time.Time `json:"window_end"`
}

// SummaryFields 由最新一条打卡记录派生的摘要字段
// 按需纯函数计算，不做可变缓存，避免与历史不一致
type SummaryFields struct {
	LastCheckInAt   *time.Time    `json:"last_checkin_at,omitempty"`
	LastPainLevel   *int          `json:"last_pain_level,omitempty"`
	LastEnergy      *EnergyBucket `json:"last_energy,omitempty"`
	LastMood        *MoodBucket   `json:"last_mood,omitempty"`
	CheckInCount    int           `json:"checkin_count"`
}

// Latest 从历史（最新在前）派生摘要字段；空历史返回零值摘要
func Latest(history []CheckInRecord) SummaryFields {
	s := SummaryFields{CheckInCount: len(history)}
	if len(history) == 0 {
		return s
	}

	latest := history[0]
	createdAt := latest.CreatedAt
	pain := latest.PainLevel
	s.LastCheckInAt = &createdAt
	s.LastPainLevel = &pain
	s.LastEnergy = latest.EnergyBucket
	s.LastMood = latest.MoodBucket
	return s
}
