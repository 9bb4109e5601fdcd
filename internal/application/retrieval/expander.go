package retrieval

import (
	"strings"
	"unicode"
)

// maxExpansionsPerWord 每个词最多追加的同义词数量。
const maxExpansionsPerWord = 3

// synonymMapRU 俄语商务/法务领域同义词表。
var synonymMapRU = map[string][]string{
	// 合同与协议
	"договор":    {"контракт", "соглашение", "сделка"},
	"контракт":   {"договор", "соглашение"},
	"соглашение": {"договор", "контракт"},

	// 法律术语
	"закон":          {"законодательство", "нормативный акт", "правовой акт"},
	"право":          {"права", "правовой"},
	"обязанность":    {"обязательство", "долг"},
	"ответственность": {"обязательство", "санкция"},

	// 商务
	"компания":     {"организация", "фирма", "предприятие", "юридическое лицо"},
	"организация":  {"компания", "фирма", "предприятие"},
	"сотрудник":    {"работник", "персонал", "служащий"},
	"работник":     {"сотрудник", "персонал", "служащий"},
	"руководитель": {"директор", "начальник", "менеджер"},
	"директор":     {"руководитель", "начальник"},

	// 财务
	"оплата":    {"платеж", "выплата", "вознаграждение"},
	"платеж":    {"оплата", "выплата"},
	"зарплата":  {"заработная плата", "оклад", "вознаграждение"},
	"цена":      {"стоимость", "тариф", "расценка"},
	"стоимость": {"цена", "тариф"},

	// 文档
	"документ":  {"бумага", "акт", "справка"},
	"заявление": {"заявка", "обращение", "ходатайство"},
	"отчет":     {"отчетность", "доклад"},

	// 动作
	"купить":   {"приобрести", "покупка"},
	"продать":  {"реализовать", "продажа"},
	"получить": {"получение", "приобрести"},
	"оформить": {"оформление", "зарегистрировать"},

	// 时间
	"срок": {"период", "дата", "время"},
	"дата": {"срок", "число"},

	// 常见提问
	"как":     {"каким образом", "способ"},
	"правила": {"порядок", "регламент", "процедура"},
	"порядок": {"правила", "процедура", "алгоритм"},
	"условия": {"требования", "критерии"},

	// 技术
	"ошибка":    {"проблема", "сбой", "неполадка"},
	"настройка": {"конфигурация", "параметр"},
}

// synonymMapEN 英语同义词表。
var synonymMapEN = map[string][]string{
	"contract":  {"agreement", "deal"},
	"agreement": {"contract", "deal"},
	"company":   {"organization", "firm", "business"},
	"employee":  {"worker", "staff"},
	"price":     {"cost", "rate"},
	"payment":   {"pay", "compensation"},
	"document":  {"file", "paper"},
	"rules":     {"regulations", "policy", "guidelines"},
	"how":       {"method", "way"},
}

// ExpandQuery 用同义词扩展查询以提升召回。
// 追加的同义词去重且不包含查询中已有的词；无可追加项时原样返回。
func ExpandQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return query
	}

	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[w] = struct{}{}
	}

	seen := make(map[string]struct{})
	var expansions []string
	add := func(synonyms []string) {
		if len(synonyms) > maxExpansionsPerWord {
			synonyms = synonyms[:maxExpansionsPerWord]
		}
		for _, syn := range synonyms {
			if _, ok := present[syn]; ok {
				continue
			}
			if _, ok := seen[syn]; ok {
				continue
			}
			seen[syn] = struct{}{}
			expansions = append(expansions, syn)
		}
	}

	for _, word := range words {
		clean := stripPunctuation(word)
		if clean == "" {
			continue
		}
		if synonyms, ok := synonymMapRU[clean]; ok {
			add(synonyms)
		}
		if synonyms, ok := synonymMapEN[clean]; ok {
			add(synonyms)
		}
	}

	if len(expansions) == 0 {
		return query
	}
	return query + " " + strings.Join(expansions, " ")
}

// stripPunctuation 去掉词中的非字母数字字符。
func stripPunctuation(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
