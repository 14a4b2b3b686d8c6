package models

import (
	"time"
)

// EnergyBucket 精力自评档位
type EnergyBucket string

const (
	EnergyLow  EnergyBucket = "low"
	EnergyOkay EnergyBucket = "okay"
	EnergyHigh EnergyBucket = "high"
)

// MoodBucket 情绪自评档位
type MoodBucket string

const (
	MoodSad     MoodBucket = "sad"
	MoodNeutral MoodBucket = "neutral"
	MoodGood    MoodBucket = "good"
)

// moodRank 显式的情绪严重度序数表（数值越小情绪越差）
// 规则比较依赖该表，而不是枚举声明顺序
var moodRank = map[MoodBucket]int{
	MoodSad:     0,
	MoodNeutral: 1,
	MoodGood:    2,
}

// Rank 返回情绪的序数值；未知档位返回 -1
func (m MoodBucket) Rank() int {
	if r, ok := moodRank[m]; ok {
		return r
	}
	return -1
}

// Valid 检查情绪档位是否合法
func (m MoodBucket) Valid() bool {
	_, ok := moodRank[m]
	return ok
}

// CheckInRecord 打卡记录（创建后不可变，本服务只读）
type CheckInRecord struct {
	ID           string        `json:"id" db:"id"`
	SubjectID    string        `json:"subject_id" db:"subject_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	PainLevel    int           `json:"pain_level" db:"pain_level"` // 0-10
	EnergyBucket *EnergyBucket `json:"energy_bucket,omitempty" db:"energy_bucket"`
	MoodBucket   *MoodBucket   `json:"mood_bucket,omitempty" db:"mood_bucket"`
	SymptomsText *string       `json:"symptoms_text,omitempty" db:"symptoms_text"`
	ConcernsText *string       `json:"concerns_text,omitempty" db:"concerns_text"`
	TeamNote     *string       `json:"team_note,omitempty" db:"team_note"`
}

// Subject 受监护对象（病人）
type Subject struct {
	SubjectID string    `json:"subject_id" db:"subject_id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Status    string    `json:"status" db:"status"` // active, discharged
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Daypart 粗粒度时段分类（仅用于汇总展示，不参与升级规则）
type Daypart string

const (
	DaypartMorning   Daypart = "morning"   // 05:00-11:59
	DaypartAfternoon Daypart = "afternoon" // 12:00-16:59
	DaypartEvening   Daypart = "evening"   // 17:00-20:59
	DaypartNight     Daypart = "night"     // 21:00-04:59
)

// DaypartOf 根据时间戳计算时段
func DaypartOf(t time.Time) Daypart {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return DaypartMorning
	case h >= 12 && h < 17:
		return DaypartAfternoon
	case h >= 17 && h < 21:
		return DaypartEvening
	default:
		return DaypartNight
	}
}
