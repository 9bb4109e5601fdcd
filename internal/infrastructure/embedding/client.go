// Package embedding 提供 Embedding 服务客户端
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"avangard-rag-api/internal/config"
	"avangard-rag-api/pkg/metrics"
	"avangard-rag-api/pkg/retry"
)

var tracer = otel.Tracer("embedding")

// Client HTTP 批量向量化客户端，实现 retrieval.Embedder
type Client struct {
	endpoint   string
	model      string
	batchSize  int
	httpClient *http.Client
	retry      retry.Policy
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	TokensUsed int         `json:"tokens_used"`
}

// NewClient 创建向量化客户端
func NewClient(cfg *config.EmbeddingConfig) *Client {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	model := cfg.Model
	if model == "" {
		model = "BAAI/bge-m3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		model:     model,
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retry.Policy{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			Jitter:       0.1,
		},
	}
}

// EmbedStrings 批量向量化文本，内部按 batchSize 分批请求
func (c *Client) EmbedStrings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, span := tracer.Start(ctx, "embedding.EmbedStrings")
	span.SetAttributes(
		attribute.String("embedding.model", c.model),
		attribute.Int("embedding.text_count", len(texts)),
	)
	defer span.End()

	start := time.Now()
	var all [][]float32
	for i := 0; i < len(texts); i += c.batchSize {
		end := i + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := texts[i:end]
		var resp *embedResponse
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var batchErr error
			resp, batchErr = c.doBatchEmbed(ctx, batch)
			return batchErr
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		all = append(all, resp.Embeddings...)
	}

	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	metrics.EmbeddingTextsTotal.Add(float64(len(texts)))
	return all, nil
}

func (c *Client) doBatchEmbed(ctx context.Context, texts []string) (*embedResponse, error) {
	reqBody, err := json.Marshal(&embedRequest{
		Texts: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化向量化请求失败: %w", err)
	}

	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("向量化服务地址为空")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("向量化服务地址无效: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/embed"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("构建向量化请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("向量化请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("向量化请求失败: status=%d", httpResp.StatusCode)
	}

	var resp embedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("解析向量化响应失败: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("向量化响应数量不一致: 期望 %d 实际 %d", len(texts), len(resp.Embeddings))
	}
	return &resp, nil
}
