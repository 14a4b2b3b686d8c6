package escalation

import (
	"caretrace-escalation/internal/models"
)

// HighPainRule 规则1：单次高疼痛
type HighPainRule struct {
	detector *Detector
}

// NewHighPainRule 创建规则1评估器
func NewHighPainRule(detector *Detector) *HighPainRule {
	return &HighPainRule{
		detector: detector,
	}
}

// Evaluate 最新打卡的疼痛值达到阈值即命中
func (r *HighPainRule) Evaluate(latest models.CheckInRecord) *Detection {
	if latest.PainLevel < r.detector.config.Escalation.HighPainThreshold {
		return nil
	}

	return &Detection{
		Reason:  models.ReasonHighPain,
		Trigger: baseTrigger(latest),
	}
}
