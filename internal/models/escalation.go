package models

import (
	"time"
)

// EscalationReason 升级报警原因（固定优先级规则集中命中的那一条）
type EscalationReason string

const (
	ReasonHighPain          EscalationReason = "high_pain"
	ReasonLowMood           EscalationReason = "low_mood"
	ReasonRapidPainIncrease EscalationReason = "rapid_pain_increase"
	ReasonRapidMoodDrop     EscalationReason = "rapid_mood_drop"
)

// Title 报警标题（推送用）
func (r EscalationReason) Title() string {
	switch r {
	case ReasonHighPain:
		return "High pain reported"
	case ReasonLowMood:
		return "Low mood reported"
	case ReasonRapidPainIncrease:
		return "Pain rising quickly"
	case ReasonRapidMoodDrop:
		return "Mood dropping"
	default:
		return "Check-in alert"
	}
}

// EscalationEvent 已触发的升级报警事件（对应 escalation_events 表）
type EscalationEvent struct {
	EventID     string           `json:"event_id" db:"event_id"`
	SubjectID   string           `json:"subject_id" db:"subject_id"`
	CheckinID   string           `json:"checkin_id" db:"checkin_id"`
	Reason      EscalationReason `json:"reason" db:"reason"`
	TriggerData string           `json:"trigger_data" db:"trigger_data"` // JSONB
	TriggeredAt time.Time        `json:"triggered_at" db:"triggered_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// TriggerData 触发数据快照（JSONB 结构，记录命中规则时的输入）
type TriggerData struct {
	PainLevel   int     `json:"pain_level"`
	Mood        *string `json:"mood,omitempty"`
	Energy      *string `json:"energy,omitempty"`
	WindowCount *int    `json:"window_count,omitempty"` // 趋势规则评估的样本数
	PainDelta   *int    `json:"pain_delta,omitempty"`   // 规则3的首末差值
}
