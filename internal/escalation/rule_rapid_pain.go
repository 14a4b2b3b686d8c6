package escalation

import (
	"time"

	"caretrace-escalation/internal/models"
)

// RapidPainRule 规则3：疼痛快速上升
type RapidPainRule struct {
	detector *Detector
}

// NewRapidPainRule 创建规则3评估器
func NewRapidPainRule(detector *Detector) *RapidPainRule {
	return &RapidPainRule{
		detector: detector,
	}
}

// Evaluate 回看窗口内疼痛首末差值达到阈值且末值不低于下限即命中
// 样本不足 MinTrendSamples 时不评估（趋势不可信）
func (r *RapidPainRule) Evaluate(latest models.CheckInRecord, recent []models.CheckInRecord, now time.Time) *Detection {
	cfg := r.detector.config.Escalation

	window := withinLookback(recent, now, cfg.RapidPainLookbackDays)
	if len(window) < cfg.MinTrendSamples {
		return nil
	}

	ordered := chronological(window)
	first := ordered[0]
	last := ordered[len(ordered)-1]

	delta := last.PainLevel - first.PainLevel
	if delta < cfg.RapidPainIncrease {
		return nil
	}
	if last.PainLevel < cfg.RapidPainFloor {
		return nil
	}

	trigger := baseTrigger(latest)
	windowCount := len(ordered)
	trigger.WindowCount = &windowCount
	trigger.PainDelta = &delta

	return &Detection{
		Reason:  models.ReasonRapidPainIncrease,
		Trigger: trigger,
	}
}
