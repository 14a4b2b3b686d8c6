package escalation

import (
	"time"

	"caretrace-escalation/internal/config"
	"caretrace-escalation/internal/models"

	"go.uber.org/zap"
)

// Detection 一次评估的命中结果（最多一条规则命中）
type Detection struct {
	Reason  models.EscalationReason
	Trigger models.TriggerData
}

// Detector 升级规则评估器
// 纯计算，无 I/O；历史窗口由调用方从 History Source 拉取
type Detector struct {
	config *config.Config
	logger *zap.Logger

	// 规则评估器（固定优先级）
	rule1 *HighPainRule  // 规则1：单次高疼痛
	rule2 *LowMoodRule   // 规则2：情绪触底
	rule3 *RapidPainRule // 规则3：疼痛快速上升
	rule4 *RapidMoodRule // 规则4：情绪快速下滑
}

// NewDetector 创建规则评估器
func NewDetector(cfg *config.Config, logger *zap.Logger) *Detector {
	d := &Detector{
		config: cfg,
		logger: logger,
	}

	d.rule1 = NewHighPainRule(d)
	d.rule2 = NewLowMoodRule(d)
	d.rule3 = NewRapidPainRule(d)
	d.rule4 = NewRapidMoodRule(d)

	return d
}

// Detect 按固定优先级评估最新打卡 + 有界近期窗口，返回首条命中规则
// recent 为最新在前的窗口，可能包含也可能不包含 latest 本身
//
// 优先级设计：单次急性风险（规则1、2）先于趋势规则（规则3、4）检查，
// 保证单条严重读数不会因趋势样本不足而被掩盖；趋势规则兜底渐进恶化
func (d *Detector) Detect(latest models.CheckInRecord, recent []models.CheckInRecord, now time.Time) *Detection {
	if det := d.rule1.Evaluate(latest); det != nil {
		d.logDetection(latest.SubjectID, det)
		return det
	}

	if det := d.rule2.Evaluate(latest); det != nil {
		d.logDetection(latest.SubjectID, det)
		return det
	}

	if det := d.rule3.Evaluate(latest, recent, now); det != nil {
		d.logDetection(latest.SubjectID, det)
		return det
	}

	if det := d.rule4.Evaluate(latest, recent, now); det != nil {
		d.logDetection(latest.SubjectID, det)
		return det
	}

	return nil
}

func (d *Detector) logDetection(subjectID string, det *Detection) {
	d.logger.Info("Escalation reason detected",
		zap.String("subject_id", subjectID),
		zap.String("reason", string(det.Reason)),
	)
}

// baseTrigger 构建触发数据快照的公共部分
func baseTrigger(latest models.CheckInRecord) models.TriggerData {
	trigger := models.TriggerData{
		PainLevel: latest.PainLevel,
	}
	if latest.MoodBucket != nil {
		m := string(*latest.MoodBucket)
		trigger.Mood = &m
	}
	if latest.EnergyBucket != nil {
		e := string(*latest.EnergyBucket)
		trigger.Energy = &e
	}
	return trigger
}

// chronological 将最新在前的窗口反转为时间正序
func chronological(recent []models.CheckInRecord) []models.CheckInRecord {
	out := make([]models.CheckInRecord, len(recent))
	for i, rec := range recent {
		out[len(recent)-1-i] = rec
	}
	return out
}

// withinLookback 过滤出时间戳在 now - days 之后的记录（保持输入顺序）
func withinLookback(recent []models.CheckInRecord, now time.Time, days int) []models.CheckInRecord {
	cutoff := now.AddDate(0, 0, -days)
	var out []models.CheckInRecord
	for _, rec := range recent {
		if !rec.CreatedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}
