package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avangard-rag-api/internal/domain/entity"
)

func TestChunkParamsForKnownTypes(t *testing.T) {
	tests := []struct {
		contentType entity.ContentType
		size        int
		overlap     int
	}{
		{entity.ContentTypeLegal, 1024, 128},
		{entity.ContentTypeTechnical, 768, 100},
		{entity.ContentTypeCooking, 384, 50},
		{entity.ContentTypeFAQ, 256, 32},
		{entity.ContentTypeGeneral, 512, 64},
	}
	for _, tt := range tests {
		p := ChunkParamsFor(tt.contentType)
		assert.Equal(t, tt.size, p.Size, "size for %s", tt.contentType)
		assert.Equal(t, tt.overlap, p.Overlap, "overlap for %s", tt.contentType)
	}
}

func TestChunkParamsForUnknownFallsBackToGeneral(t *testing.T) {
	p := ChunkParamsFor(entity.ContentType("unknown"))
	assert.Equal(t, ChunkParamsFor(entity.ContentTypeGeneral), p)
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, SplitText("", ChunkParams{Size: 512, Overlap: 64}))
	assert.Nil(t, SplitText("   \n\t  ", ChunkParams{Size: 512, Overlap: 64}))
}

func TestSplitTextShortReturnsSingleChunk(t *testing.T) {
	text := "Короткий текст. Из двух предложений."
	chunks := SplitText(text, ChunkParams{Size: 512, Overlap: 64})
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitTextRespectsSizeLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("Это предложение номер какое-то из длинного документа. ")
	}
	params := ChunkParams{Size: 256, Overlap: 32}
	chunks := SplitText(b.String(), params)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk)
		assert.LessOrEqual(t, len([]rune(chunk)), params.Size, "chunk %d exceeds size", i)
	}
}

func TestSplitTextOverlapCarriesSuffix(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Предложение для проверки перекрытия соседних блоков. ")
	}
	chunks := SplitText(b.String(), ChunkParams{Size: 200, Overlap: 60})
	require.Greater(t, len(chunks), 1)

	// 下一块应以上一块的尾句开头
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		lastSentence := prev[strings.LastIndex(prev[:len(prev)-1], ".")+1:]
		lastSentence = strings.TrimSpace(strings.TrimSuffix(lastSentence, "."))
		if lastSentence == "" {
			continue
		}
		assert.True(t, strings.HasPrefix(chunks[i], lastSentence),
			"chunk %d does not start with previous tail", i)
	}
}

func TestSplitTextPreservesAllContent(t *testing.T) {
	sentences := []string{
		"Первое предложение документа.",
		"Второе предложение с деталями.",
		"Третье предложение завершает раздел.",
		"Четвертое предложение открывает новый раздел.",
		"Пятое предложение с выводами.",
	}
	text := strings.Join(sentences, " ")
	chunks := SplitText(text, ChunkParams{Size: 80, Overlap: 0})

	joined := strings.Join(chunks, " ")
	for _, s := range sentences {
		assert.Contains(t, joined, s)
	}
}

func TestSplitTextOversizedSentenceFallsBackToWindow(t *testing.T) {
	// 无句末标点的超长文本退化为固定窗口切分
	text := strings.Repeat("слово ", 200)
	params := ChunkParams{Size: 128, Overlap: 16}
	chunks := SplitText(text, params)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), params.Size)
	}
}

func TestSplitTextFAQKeepsPairsSmall(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Вопрос: как это работает? Ответ: вот так и работает. ")
	}
	params := ChunkParamsFor(entity.ContentTypeFAQ)
	chunks := SplitText(b.String(), params)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), params.Size)
	}
}
