package retrieval

import (
	"regexp"
	"strings"

	"avangard-rag-api/internal/domain/entity"
)

// ChunkParams 分块参数，按内容类别自适应。
type ChunkParams struct {
	Size    int // 单块最大长度（按 rune 计）
	Overlap int // 相邻块之间的重叠长度
}

// chunkParamsByType 各内容类别的分块参数。
// 法律文本需要更大的上下文窗口，FAQ 的问答对则很短。
var chunkParamsByType = map[entity.ContentType]ChunkParams{
	entity.ContentTypeLegal:     {Size: 1024, Overlap: 128},
	entity.ContentTypeTechnical: {Size: 768, Overlap: 100},
	entity.ContentTypeCooking:   {Size: 384, Overlap: 50},
	entity.ContentTypeFAQ:       {Size: 256, Overlap: 32},
	entity.ContentTypeGeneral:   {Size: 512, Overlap: 64},
}

// ChunkParamsFor 返回内容类别对应的分块参数，未知类别回退为 general。
func ChunkParamsFor(contentType entity.ContentType) ChunkParams {
	if p, ok := chunkParamsByType[contentType]; ok {
		return p
	}
	return chunkParamsByType[entity.ContentTypeGeneral]
}

// sentenceRe 匹配以句末标点结尾的句子，以及结尾处不带标点的残句。
var sentenceRe = regexp.MustCompile(`[^.!?…]+[.!?…]+|[^.!?…]+$`)

// SplitText 将文本按句子边界切分为重叠的块。
// 块在不超过 Size 的前提下尽量保持句子完整；超长句子退化为按 rune 窗口切分。
func SplitText(text string, params ChunkParams) []string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	if params.Size <= 0 {
		return []string{raw}
	}
	if params.Overlap < 0 {
		params.Overlap = 0
	}
	if len([]rune(raw)) <= params.Size {
		return []string{raw}
	}

	sentences := splitSentences(raw, params.Size, params.Overlap)

	chunks := make([]string, 0, len(sentences))
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(current, " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		// 保留尾部句子作为下一块的重叠前缀
		current, currentLen = overlapTail(current, params.Overlap)
	}

	for _, s := range sentences {
		sLen := len([]rune(s))
		if currentLen > 0 && currentLen+sLen+1 > params.Size {
			flush()
		}
		current = append(current, s)
		currentLen += sLen
		if len(current) > 1 {
			currentLen++ // 连接空格
		}
	}
	flush()

	return chunks
}

// splitSentences 切分句子并将超长句子按 rune 窗口再切分。
func splitSentences(text string, maxRunes, overlap int) []string {
	matches := sentenceRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		s := strings.TrimSpace(m)
		if s == "" {
			continue
		}
		if len([]rune(s)) <= maxRunes {
			out = append(out, s)
			continue
		}
		out = append(out, splitByRunes(s, maxRunes, overlap)...)
	}
	return out
}

// overlapTail 从块尾部取出总长不超过 overlap 的句子，作为下一块的起始内容。
func overlapTail(sentences []string, overlap int) ([]string, int) {
	if overlap <= 0 {
		return nil, 0
	}
	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		sLen := len([]rune(sentences[i]))
		if total+sLen > overlap {
			break
		}
		total += sLen
		start = i
	}
	tail := sentences[start:]
	if len(tail) == 0 {
		return nil, 0
	}
	out := make([]string, len(tail))
	copy(out, tail)
	return out, total
}

// splitByRunes 按固定 rune 窗口切分，相邻窗口重叠 overlapRunes。
func splitByRunes(s string, maxRunes, overlapRunes int) []string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}
	if maxRunes <= 0 {
		return []string{raw}
	}
	if overlapRunes < 0 {
		overlapRunes = 0
	}
	runes := []rune(raw)
	if len(runes) <= maxRunes {
		return []string{raw}
	}
	step := maxRunes - overlapRunes
	if step <= 0 {
		step = maxRunes
	}

	out := make([]string, 0, (len(runes)/step)+1)
	for start := 0; start < len(runes); start += step {
		end := start + maxRunes
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end >= len(runes) {
			break
		}
	}
	return out
}
