package escalation

import (
	"time"

	"caretrace-escalation/internal/models"
)

// RapidMoodRule 规则4：情绪快速下滑
type RapidMoodRule struct {
	detector *Detector
}

// NewRapidMoodRule 创建规则4评估器
func NewRapidMoodRule(detector *Detector) *RapidMoodRule {
	return &RapidMoodRule{
		detector: detector,
	}
}

// Evaluate 回看窗口内的情绪序列（时间正序，丢弃未填情绪的记录）：
// 最近一次为 sad，且（a）最后 ConsecutiveSadMoodCount 个样本全为 sad，
// 或（b）紧邻的前一个样本情绪序数严格更高，即命中
func (r *RapidMoodRule) Evaluate(latest models.CheckInRecord, recent []models.CheckInRecord, now time.Time) *Detection {
	cfg := r.detector.config.Escalation

	window := withinLookback(recent, now, cfg.RapidMoodLookbackDays)

	var moods []models.MoodBucket
	for _, rec := range chronological(window) {
		if rec.MoodBucket != nil && rec.MoodBucket.Valid() {
			moods = append(moods, *rec.MoodBucket)
		}
	}

	// 至少 2 个情绪样本才能判断变化
	if len(moods) < 2 {
		return nil
	}

	newest := moods[len(moods)-1]
	if newest != models.MoodSad {
		return nil
	}

	// 条件a：最后 N 个样本全为 sad
	n := cfg.ConsecutiveSadMoodCount
	if n >= 2 && len(moods) >= n {
		allSad := true
		for _, m := range moods[len(moods)-n:] {
			if m != models.MoodSad {
				allSad = false
				break
			}
		}
		if allSad {
			return r.detection(latest, len(moods))
		}
	}

	// 条件b：前一个样本情绪严格更好（骤降）
	previous := moods[len(moods)-2]
	if previous.Rank() > models.MoodSad.Rank() {
		return r.detection(latest, len(moods))
	}

	return nil
}

func (r *RapidMoodRule) detection(latest models.CheckInRecord, sampleCount int) *Detection {
	trigger := baseTrigger(latest)
	trigger.WindowCount = &sampleCount

	return &Detection{
		Reason:  models.ReasonRapidMoodDrop,
		Trigger: trigger,
	}
}
