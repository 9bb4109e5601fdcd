// Package rerank 提供交叉编码器重排服务客户端
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"avangard-rag-api/internal/config"
)

var tracer = otel.Tracer("rerank")

// Client HTTP 重排客户端，实现 retrieval.Reranker
//
// 重排模型在服务端按需加载，首次调用前先发送一次预热请求，
// 避免首个用户查询承担模型加载延迟。
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client

	warmOnce sync.Once
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
}

type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// NewClient 创建重排客户端
func NewClient(cfg *config.RerankConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "BAAI/bge-reranker-v2-m3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Rerank 对 query 与每个文档的相关性打分，返回与 docs 等长的得分列表
func (c *Client) Rerank(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return []float64{}, nil
	}

	ctx, span := tracer.Start(ctx, "rerank.Rerank")
	span.SetAttributes(
		attribute.String("rerank.model", c.model),
		attribute.Int("rerank.doc_count", len(docs)),
	)
	defer span.End()

	// 预热失败不阻断调用，正式请求自己会报错
	c.warmOnce.Do(func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
		defer cancel()
		_, _ = c.doRerank(warmCtx, "warmup", []string{"warmup"})
	})

	resp, err := c.doRerank(ctx, query, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(resp.Scores) != len(docs) {
		err := fmt.Errorf("重排响应数量不一致: 期望 %d 实际 %d", len(docs), len(resp.Scores))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp.Scores, nil
}

func (c *Client) doRerank(ctx context.Context, query string, docs []string) (*rerankResponse, error) {
	reqBody, err := json.Marshal(&rerankRequest{
		Query:     query,
		Documents: docs,
		Model:     c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化重排请求失败: %w", err)
	}

	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("重排服务地址为空")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("重排服务地址无效: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/rerank"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("构建重排请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("重排请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("重排请求失败: status=%d", httpResp.StatusCode)
	}

	var resp rerankResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("解析重排响应失败: %w", err)
	}
	return &resp, nil
}
