package retrieval

import (
	"strings"

	"avangard-rag-api/internal/domain/entity"
)

// classifySampleRunes 参与分类的文本前缀长度，截断以控制大文档的分类开销。
const classifySampleRunes = 5000

// classifierRule 单个内容类别的启发式判定规则。
// 规则按声明顺序依次评估，首个命中的类别胜出。
type classifierRule struct {
	contentType entity.ContentType

	// keywords 关键词表；命中计数达到 threshold 即判定为该类别。
	keywords  []string
	threshold int

	// countOccurrences 为 true 时统计关键词出现总次数，否则统计命中的不同关键词个数。
	countOccurrences bool

	// filenameHints 文件名包含任一提示词时直接判定为该类别。
	filenameHints []string
}

var classifierRules = []classifierRule{
	{
		contentType: entity.ContentTypeLegal,
		keywords: []string{
			"договор", "соглашение", "закон", "статья", "пункт", "постановление",
			"кодекс", "конституция", "регламент", "устав", "положение",
			"contract", "agreement", "law", "article", "clause", "hereby",
			"whereas", "jurisdiction", "liability", "indemnify",
		},
		threshold:     3,
		filenameHints: []string{"contract", "legal", "agreement", "договор", "закон"},
	},
	{
		contentType: entity.ContentTypeFAQ,
		keywords: []string{
			"вопрос:", "ответ:", "q:", "a:", "faq", "чаво", "?",
			"question:", "answer:",
		},
		threshold:        5,
		countOccurrences: true,
		filenameHints:    []string{"faq"},
	},
	{
		contentType: entity.ContentTypeTechnical,
		keywords: []string{
			"api", "function", "class", "def ", "import ", "return ",
			"database", "algorithm", "implementation", "method",
			"код", "программа", "алгоритм", "функция", "переменная",
			"```", "const ", "let ", "var ",
		},
		threshold:     3,
		filenameHints: []string{"tech", "api", "code", "dev", "doc"},
	},
	{
		contentType: entity.ContentTypeCooking,
		keywords: []string{
			"рецепт", "ингредиент", "приготовление", "духовка", "минут",
			"грамм", "столовая ложка", "чайная ложка", "нарезать", "варить",
			"recipe", "ingredient", "cooking", "bake", "tablespoon", "teaspoon",
		},
		threshold:     3,
		filenameHints: []string{"recipe", "cooking", "рецепт"},
	},
}

// ClassifyContent 基于关键词启发式判定文档内容类别。
// 未命中任何规则时返回 general。
func ClassifyContent(text, filename string) entity.ContentType {
	sample := strings.ToLower(text)
	if runes := []rune(sample); len(runes) > classifySampleRunes {
		sample = string(runes[:classifySampleRunes])
	}
	filenameLower := strings.ToLower(filename)

	for _, rule := range classifierRules {
		if rule.matches(sample, filenameLower) {
			return rule.contentType
		}
	}
	return entity.ContentTypeGeneral
}

func (r classifierRule) matches(sample, filename string) bool {
	count := 0
	for _, kw := range r.keywords {
		if r.countOccurrences {
			count += strings.Count(sample, kw)
		} else if strings.Contains(sample, kw) {
			count++
		}
		if count >= r.threshold {
			return true
		}
	}

	for _, hint := range r.filenameHints {
		if strings.Contains(filename, hint) {
			return true
		}
	}
	return false
}
