package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQueryRussianSynonyms(t *testing.T) {
	expanded := ExpandQuery("договор аренды")

	assert.True(t, strings.HasPrefix(expanded, "договор аренды"))
	assert.Contains(t, expanded, "контракт")
	assert.Contains(t, expanded, "соглашение")
	assert.Contains(t, expanded, "сделка")
}

func TestExpandQueryEnglishSynonyms(t *testing.T) {
	expanded := ExpandQuery("contract terms")

	assert.True(t, strings.HasPrefix(expanded, "contract terms"))
	assert.Contains(t, expanded, "agreement")
	assert.Contains(t, expanded, "deal")
}

func TestExpandQueryNoSynonymsUnchanged(t *testing.T) {
	query := "квантовая хромодинамика"
	assert.Equal(t, query, ExpandQuery(query))
}

func TestExpandQueryEmptyUnchanged(t *testing.T) {
	assert.Equal(t, "", ExpandQuery(""))
	assert.Equal(t, "   ", ExpandQuery("   "))
}

func TestExpandQuerySkipsWordsAlreadyPresent(t *testing.T) {
	// "контракт" 已在查询中，不应重复追加
	expanded := ExpandQuery("договор контракт")
	rest := strings.TrimPrefix(expanded, "договор контракт")
	assert.NotContains(t, rest, "контракт")
}

func TestExpandQueryStripsPunctuation(t *testing.T) {
	expanded := ExpandQuery("договор?")
	assert.Contains(t, expanded, "контракт")
}

func TestExpandQueryMaxThreeSynonymsPerWord(t *testing.T) {
	// "компания" 表中有 4 个同义词，最多追加 3 个
	expanded := ExpandQuery("компания")
	added := strings.Fields(strings.TrimPrefix(expanded, "компания"))
	// "юридическое лицо" 为双词同义词，不会进入前三个
	assert.LessOrEqual(t, len(added), 3)
	assert.NotContains(t, expanded, "юридическое")
}

func TestExpandQueryNoDuplicateExpansions(t *testing.T) {
	// "договор" 和 "контракт" 互为同义词，追加项不应重复
	expanded := ExpandQuery("цена стоимость")
	words := strings.Fields(expanded)
	seen := make(map[string]int)
	for _, w := range words {
		seen[w]++
	}
	for w, n := range seen {
		assert.Equal(t, 1, n, "word %q appears %d times", w, n)
	}
}

func TestExpandQueryDeterministic(t *testing.T) {
	first := ExpandQuery("договор оплата срок")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ExpandQuery("договор оплата срок"))
	}
}
