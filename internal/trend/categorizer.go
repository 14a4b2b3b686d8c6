package trend

import (
	"strings"
)

// Categorizer 自由文本症状分类器（纯函数，无副作用，容忍空输入）
type Categorizer interface {
	Categorize(text string) []string
}

// 规范类别标签
const (
	CategoryPain      = "pain"
	CategoryNausea    = "nausea"
	CategorySleep     = "sleep"
	CategoryBreathing = "breathing"
	CategoryAppetite  = "appetite"
	CategoryFatigue   = "fatigue"
	CategoryAnxiety   = "anxiety"
	CategoryOther     = "other"
)

// keywordTags 关键词 → 规范类别映射（小写匹配）
// 顺序决定同一文本内类别的输出顺序
var keywordTags = []struct {
	keywords []string
	tag      string
}{
	{[]string{"pain", "ache", "aching", "sore", "hurt", "cramp", "headache"}, CategoryPain},
	{[]string{"nausea", "nauseous", "vomit", "throwing up", "queasy"}, CategoryNausea},
	{[]string{"sleep", "insomnia", "awake", "restless night", "can't sleep", "cannot sleep"}, CategorySleep},
	{[]string{"breath", "breathing", "wheez", "short of breath", "cough"}, CategoryBreathing},
	{[]string{"appetite", "eating", "no desire to eat", "food"}, CategoryAppetite},
	{[]string{"tired", "fatigue", "exhausted", "drained", "weak"}, CategoryFatigue},
	{[]string{"anxious", "anxiety", "worried", "worry", "scared", "afraid", "stress"}, CategoryAnxiety},
}

// KeywordCategorizer 基于关键词的分类器实现
type KeywordCategorizer struct{}

func NewKeywordCategorizer() *KeywordCategorizer {
	return &KeywordCategorizer{}
}

// Categorize 将自由文本映射为规范类别标签列表
// 空文本返回空列表；无任何关键词命中但文本非空时归入 "other"
func (c *KeywordCategorizer) Categorize(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}
	}

	lower := strings.ToLower(trimmed)

	var tags []string
	for _, entry := range keywordTags {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{CategoryOther}
	}

	return tags
}
