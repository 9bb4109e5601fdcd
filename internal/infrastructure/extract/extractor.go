// Package extract 提供文档文本抽取
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"avangard-rag-api/internal/application/retrieval"
)

// Extractor 按文件类型抽取纯文本，实现 retrieval.TextExtractor
type Extractor struct{}

// NewExtractor 创建文本抽取器
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract 从原始文件内容中抽取纯文本
//
// 支持 txt/md 纯文本与 PDF，其余格式返回 retrieval.ErrUnsupportedContent。
// 类型判定优先看扩展名，缺失时回退到 MIME 类型。
func (e *Extractor) Extract(filename, mimeType string, content []byte) (string, error) {
	switch kind(filename, mimeType) {
	case "text":
		if !utf8.Valid(content) {
			return "", fmt.Errorf("文本内容不是合法 UTF-8: %w", retrieval.ErrUnsupportedContent)
		}
		return string(content), nil
	case "pdf":
		return extractPDF(content)
	default:
		return "", fmt.Errorf("不支持的文件类型 %q: %w", filename, retrieval.ErrUnsupportedContent)
	}
}

func kind(filename, mimeType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return "text"
	case ".pdf":
		return "pdf"
	}
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return "text"
	case mimeType == "application/pdf":
		return "pdf"
	}
	return ""
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("打开 PDF 失败: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("读取 PDF 文本失败: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("读取 PDF 文本失败: %w", err)
	}
	return buf.String(), nil
}
