package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/metrics"
	"avangard-rag-api/pkg/tracer"
)

const (
	defaultSearchLimit    = 5
	defaultMaxSearchLimit = 50
	defaultScoreThreshold = 0.35
	defaultRerankTopN     = 5

	// rerankFetchFactor 启用重排时按最终数量的倍数扩大初筛候选集。
	rerankFetchFactor = 3

	// dedupeTextPrefixRunes 结果缺少 document_id 时，用文本前缀作为去重键。
	dedupeTextPrefixRunes = 50
)

// EngineOptions 检索引擎行为参数。
type EngineOptions struct {
	DefaultLimit   int
	MaxLimit       int
	ScoreThreshold float64
	RerankTopN     int
	ExpandQueries  bool
}

// Engine 范围化向量检索引擎。
// 按检索范围展开过滤条件并发召回，去重后交叉编码器重排。
type Engine struct {
	embedder Embedder
	vector   VectorRepository
	reranker Reranker
	cache    *SearchCache

	// sf 合并并发的相同未命中查询，避免击穿到向量库
	sf   singleflight.Group
	opts EngineOptions
}

// NewEngine 创建检索引擎。reranker 与 cache 允许为 nil，对应能力降级。
func NewEngine(embedder Embedder, vector VectorRepository, reranker Reranker, cache *SearchCache, opts EngineOptions) *Engine {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultSearchLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = defaultMaxSearchLimit
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = defaultScoreThreshold
	}
	if opts.RerankTopN <= 0 {
		opts.RerankTopN = defaultRerankTopN
	}
	return &Engine{
		embedder: embedder,
		vector:   vector,
		reranker: reranker,
		cache:    cache,
		opts:     opts,
	}
}

// Search 执行范围化检索。
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Search")
	defer span.End()

	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if in.UserID <= 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if in.Limit <= 0 {
		in.Limit = e.opts.DefaultLimit
	}
	if in.Limit > e.opts.MaxLimit {
		in.Limit = e.opts.MaxLimit
	}
	if in.ScoreThreshold <= 0 {
		in.ScoreThreshold = e.opts.ScoreThreshold
	}
	if in.RerankTopN <= 0 {
		in.RerankTopN = e.opts.RerankTopN
	}

	start := time.Now()
	scopeLabel := in.Scope.String()

	// 1) 缓存命中直接返回
	if !in.SkipCache {
		if results, ok := e.cache.Get(ctx, in.UserID, in.Query, in.OrganizationID, in.Scope); ok {
			metrics.SearchTotal.WithLabelValues(scopeLabel, "cache_hit").Inc()
			return &SearchOutput{Results: results, CacheHit: true}, nil
		}
	}

	sfKey := fmt.Sprintf("%d:%s:%d:%s:%d:%t:%d", in.UserID, strings.ToLower(in.Query), in.OrganizationID, in.Scope, in.Limit, in.UseRerank, in.RerankTopN)
	v, err, _ := e.sf.Do(sfKey, func() (interface{}, error) {
		return e.search(ctx, in, scopeLabel, start)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchOutput), nil
}

func (e *Engine) search(ctx context.Context, in SearchInput, scopeLabel string, start time.Time) (*SearchOutput, error) {
	// 2) 同义词扩展，仅影响向量召回；重排仍使用原始查询
	searchQuery := in.Query
	if e.opts.ExpandQueries {
		searchQuery = ExpandQuery(in.Query)
		if searchQuery != in.Query {
			logger.Debug(ctx, "query expanded", "original", in.Query, "expanded", searchQuery)
		}
	}

	results, err := e.retrieve(ctx, searchQuery, in)
	if err != nil {
		metrics.SearchTotal.WithLabelValues(scopeLabel, "error").Inc()
		return nil, err
	}

	// 3) 重排或按相似度截断
	reranked := false
	if in.UseRerank && len(results) > 0 {
		reranked = e.rerank(ctx, in.Query, results)
	}
	if reranked {
		sort.SliceStable(results, func(i, j int) bool {
			return *results[i].RerankScore > *results[j].RerankScore
		})
		if len(results) > in.RerankTopN {
			results = results[:in.RerankTopN]
		}
	} else {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
		if len(results) > in.Limit {
			results = results[:in.Limit]
		}
	}

	if !in.SkipCache {
		e.cache.Set(ctx, in.UserID, in.Query, in.OrganizationID, in.Scope, results)
	}

	metrics.SearchTotal.WithLabelValues(scopeLabel, "ok").Inc()
	metrics.SearchDuration.WithLabelValues(scopeLabel).Observe(time.Since(start).Seconds())
	metrics.SearchResultCount.WithLabelValues(scopeLabel).Observe(float64(len(results)))

	out := &SearchOutput{
		Results:  results,
		Reranked: reranked,
	}
	if searchQuery != in.Query {
		out.Expanded = searchQuery
	}
	return out, nil
}

// retrieve 对检索范围展开的每个过滤条件并发召回，合并去重。
func (e *Engine) retrieve(ctx context.Context, query string, in SearchInput) ([]SearchResult, error) {
	filters := in.Scope.Filters(in.UserID, in.OrganizationID)
	if len(filters) == 0 {
		return nil, nil
	}

	vec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}

	initialLimit := in.Limit
	if in.UseRerank {
		initialLimit = in.Limit * rerankFetchFactor
	}

	// 各分区并发召回，结果按过滤条件顺序合并以保证确定性
	partitions := make([][]SearchResult, len(filters))
	g, gctx := errgroup.WithContext(ctx)
	for idx, filter := range filters {
		g.Go(func() error {
			hits, err := e.vector.Search(gctx, &VectorSearchParams{
				QueryVector: vec,
				Limit:       initialLimit,
				Filter:      filter,
			})
			if err != nil {
				return err
			}
			part := make([]SearchResult, 0, len(hits))
			for _, hit := range hits {
				if hit == nil || hit.Score < in.ScoreThreshold {
					continue
				}
				part = append(part, toSearchResult(hit))
			}
			partitions[idx] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}

	merged := make([]SearchResult, 0, initialLimit*len(filters))
	for _, part := range partitions {
		merged = append(merged, part...)
	}
	if len(filters) > 1 {
		merged = dedupeResults(merged)
	}
	return merged, nil
}

// rerank 用交叉编码器对结果重新打分，失败时降级为按相似度排序。
func (e *Engine) rerank(ctx context.Context, query string, results []SearchResult) bool {
	if e.reranker == nil {
		return false
	}

	start := time.Now()
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Text
	}

	scores, err := e.reranker.Rerank(ctx, query, docs)
	if err != nil || len(scores) != len(results) {
		metrics.RerankTotal.WithLabelValues("fallback").Inc()
		logger.Warn(ctx, "rerank failed, falling back to similarity order", "error", err)
		return false
	}

	for i := range results {
		score := scores[i]
		results[i].RerankScore = &score
	}

	metrics.RerankTotal.WithLabelValues("ok").Inc()
	metrics.RerankDuration.Observe(time.Since(start).Seconds())
	return true
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vecs[0], nil
}

// dedupeResults 按 document_id 去重，键冲突时保留得分更高的一条。
// 缺少 document_id 的结果退化为用文本前缀作为去重键。
func dedupeResults(results []SearchResult) []SearchResult {
	seen := make(map[string]int, len(results))
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		key := r.DocumentID
		if key == "" {
			runes := []rune(r.Text)
			if len(runes) > dedupeTextPrefixRunes {
				runes = runes[:dedupeTextPrefixRunes]
			}
			key = string(runes)
		}
		if idx, ok := seen[key]; ok {
			if r.Score > out[idx].Score {
				out[idx] = r
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out
}

func toSearchResult(hit *VectorSearchResult) SearchResult {
	filename := hit.Filename
	if filename == "" {
		filename = "Unknown"
	}
	contentType := hit.ContentType
	if contentType == "" {
		contentType = "general"
	}
	return SearchResult{
		Text:        hit.Text,
		Filename:    filename,
		DocumentID:  hit.DocumentID,
		ContentType: toContentType(contentType),
		Score:       hit.Score,
	}
}
