package escalation

import (
	"caretrace-escalation/internal/models"
)

// LowMoodRule 规则2：情绪触底
type LowMoodRule struct {
	detector      *Detector
	thresholdRank int
}

// NewLowMoodRule 创建规则2评估器
func NewLowMoodRule(detector *Detector) *LowMoodRule {
	// 阈值按显式序数表比较；配置非法时回退到 sad
	threshold := models.MoodBucket(detector.config.Escalation.MoodEscalationThreshold)
	rank := threshold.Rank()
	if rank < 0 {
		rank = models.MoodSad.Rank()
	}

	return &LowMoodRule{
		detector:      detector,
		thresholdRank: rank,
	}
}

// Evaluate 最新打卡带有情绪档位且序数不高于阈值即命中
// 未填情绪的打卡不参与本规则
func (r *LowMoodRule) Evaluate(latest models.CheckInRecord) *Detection {
	if latest.MoodBucket == nil || !latest.MoodBucket.Valid() {
		return nil
	}
	if latest.MoodBucket.Rank() > r.thresholdRank {
		return nil
	}

	return &Detection{
		Reason:  models.ReasonLowMood,
		Trigger: baseTrigger(latest),
	}
}
