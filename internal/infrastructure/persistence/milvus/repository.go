// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/pkg/metrics"
)

// Repository 文档分块向量仓储，实现 retrieval.VectorRepository。
type Repository struct {
	client    *Client
	dimension int

	ensureOnce sync.Once
	ensureErr  error
}

// NewRepository 创建向量仓储。dimension 为 embedding 向量维度。
func NewRepository(client *Client, dimension int) *Repository {
	return &Repository{client: client, dimension: dimension}
}

// EnsureCollection 确保集合、索引存在并已加载，幂等。
// 不做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	r.ensureOnce.Do(func() {
		r.ensureErr = r.ensureCollection(ctx)
	})
	return r.ensureErr
}

func (r *Repository) ensureCollection(ctx context.Context) error {
	collName := r.client.Collection()

	exists, err := r.client.HasCollection(ctx, collName)
	if err != nil {
		return err
	}
	if !exists {
		schema := DocumentChunksSchema(collName, r.dimension)
		if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := r.createIndex(ctx, collName); err != nil {
			return err
		}
	}

	return r.client.LoadCollection(ctx, collName)
}

func (r *Repository) createIndex(ctx context.Context, collName string) error {
	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Search 在指定过滤条件下执行相似度检索。
func (r *Repository) Search(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.Int64("user_id", params.Filter.UserID),
			attribute.Int64("organization_id", params.Filter.OrganizationID),
			attribute.Int("limit", params.Limit),
		))
	defer span.End()

	collName := r.client.Collection()
	expr := filterExpr(params.Filter)

	searchEf := r.client.config.SearchEf
	if searchEf <= 0 {
		searchEf = 64
	}
	sp, err := entity.NewIndexHNSWSearchParam(searchEf)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	start := time.Now()
	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		expr,
		[]string{"id", "text_content", "document_id", "filename", "content_type"},
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		entity.COSINE,
		params.Limit,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(collName, "error").Inc()
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(collName, "ok").Inc()
	metrics.MilvusSearchDuration.WithLabelValues(collName).Observe(time.Since(start).Seconds())

	var searchResults []*retrieval.VectorSearchResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sr := &retrieval.VectorSearchResult{
				Score: float64(result.Scores[i]),
			}

			if col, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				sr.ID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				sr.Text = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("document_id").(*entity.ColumnVarChar); ok {
				sr.DocumentID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("filename").(*entity.ColumnVarChar); ok {
				sr.Filename = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("content_type").(*entity.ColumnVarChar); ok {
				sr.ContentType = col.Data()[i]
			}

			searchResults = append(searchResults, sr)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(searchResults)))
	return searchResults, nil
}

// Insert 批量写入文档分块。
func (r *Repository) Insert(ctx context.Context, chunks []*retrieval.VectorChunk) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Insert",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	documentIDs := make([]string, len(chunks))
	userIDs := make([]int64, len(chunks))
	organizationIDs := make([]int64, len(chunks))
	visibilities := make([]string, len(chunks))
	contentTypes := make([]string, len(chunks))
	filenames := make([]string, len(chunks))
	texts := make([]string, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		vectors[i] = chunk.Vector
		documentIDs[i] = chunk.DocumentID
		userIDs[i] = chunk.UserID
		organizationIDs[i] = chunk.OrganizationID
		visibilities[i] = chunk.Visibility
		contentTypes[i] = chunk.ContentType
		filenames[i] = chunk.Filename
		texts[i] = chunk.Text
	}

	_, err := r.client.milvus.Insert(ctx, r.client.Collection(), "",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", r.dimension, vectors),
		entity.NewColumnVarChar("document_id", documentIDs),
		entity.NewColumnInt64("user_id", userIDs),
		entity.NewColumnInt64("organization_id", organizationIDs),
		entity.NewColumnVarChar("visibility", visibilities),
		entity.NewColumnVarChar("content_type", contentTypes),
		entity.NewColumnVarChar("filename", filenames),
		entity.NewColumnVarChar("text_content", texts),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	return nil
}

// DeleteByFilter 删除匹配过滤条件的全部分块。
func (r *Repository) DeleteByFilter(ctx context.Context, filter retrieval.VectorFilter) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	expr := filterExpr(filter)
	if expr == "" {
		// 空条件会清空整个集合，拒绝执行
		return fmt.Errorf("refusing to delete with empty filter")
	}

	ctx, span := tracer.Start(ctx, "milvus.DeleteByFilter",
		trace.WithAttributes(attribute.String("filter", expr)))
	defer span.End()

	if err := r.client.milvus.Delete(ctx, r.client.Collection(), "", expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// filterExpr 将过滤条件转换为 Milvus 布尔表达式。
// 零值字段不参与过滤；字符串值中的引号与反斜杠做转义。
func filterExpr(f retrieval.VectorFilter) string {
	var parts []string
	if f.UserID > 0 {
		parts = append(parts, fmt.Sprintf(`user_id == %d`, f.UserID))
	}
	if f.OrganizationID > 0 {
		parts = append(parts, fmt.Sprintf(`organization_id == %d`, f.OrganizationID))
	}
	if f.Visibility != "" {
		parts = append(parts, fmt.Sprintf(`visibility == "%s"`, escapeString(string(f.Visibility))))
	}
	if f.DocumentID != "" {
		parts = append(parts, fmt.Sprintf(`document_id == "%s"`, escapeString(f.DocumentID)))
	}
	if f.Filename != "" {
		parts = append(parts, fmt.Sprintf(`filename == "%s"`, escapeString(f.Filename)))
	}
	return strings.Join(parts, " && ")
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
