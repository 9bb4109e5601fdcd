package document

import (
	"context"
	"errors"
	"fmt"

	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/domain/entity"
	"avangard-rag-api/internal/domain/repository"
	"avangard-rag-api/internal/infrastructure/messaging"
	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/metrics"
)

// Processor 索引 worker 的消息处理器
type Processor struct {
	docRepo repository.DocumentRepository
	indexer *retrieval.Indexer
	store   FileStore
	cache   *retrieval.SearchCache
}

// NewProcessor 创建消息处理器
func NewProcessor(docRepo repository.DocumentRepository, indexer *retrieval.Indexer, store FileStore, cache *retrieval.SearchCache) *Processor {
	return &Processor{
		docRepo: docRepo,
		indexer: indexer,
		store:   store,
		cache:   cache,
	}
}

// HandleIndex 处理文档索引任务
//
// 内容本身的问题（空文档、不支持的格式）是终态失败，直接标记不重试；
// 依赖故障返回错误交由队列按退避重投。
func (p *Processor) HandleIndex(ctx context.Context, msg *messaging.Message) error {
	var job messaging.DocumentIndexMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		logger.Error(ctx, "invalid index job payload", err, "message_id", msg.ID)
		return nil
	}
	ctx = logger.WithContext(ctx, logger.DocumentIDKey, job.DocumentID)

	doc, err := p.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		return err
	}
	if doc == nil {
		// 文档在任务处理前已被删除
		logger.Warn(ctx, "document no longer exists, skipping index job")
		return nil
	}

	doc.MarkProcessing()
	if err := p.docRepo.Update(ctx, doc); err != nil {
		return err
	}

	content, err := p.store.Load(doc.StoragePath)
	if err != nil {
		p.markFailed(ctx, doc, fmt.Sprintf("读取原始文件失败: %v", err))
		return nil
	}

	stats, err := p.indexer.IndexDocument(ctx, doc, content, doc.MimeType)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyDocument) || errors.Is(err, retrieval.ErrUnsupportedContent) {
			p.markFailed(ctx, doc, err.Error())
			return nil
		}
		// 依赖故障，交回队列重试
		doc.MarkFailed(err.Error())
		if updErr := p.docRepo.Update(ctx, doc); updErr != nil {
			logger.Error(ctx, "failed to record index error", updErr)
		}
		metrics.IndexingTotal.WithLabelValues(string(entity.ContentTypeGeneral), "retry").Inc()
		return err
	}

	doc.MarkIndexed(stats.ContentType, stats.Chunks)
	if err := p.docRepo.Update(ctx, doc); err != nil {
		return err
	}

	p.invalidateCaches(ctx, doc)
	metrics.IndexingTotal.WithLabelValues(string(stats.ContentType), "ok").Inc()
	return nil
}

// HandleDelete 处理文档删除任务：清理向量分块与检索缓存
func (p *Processor) HandleDelete(ctx context.Context, msg *messaging.Message) error {
	var job messaging.DocumentDeleteMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		logger.Error(ctx, "invalid delete job payload", err, "message_id", msg.ID)
		return nil
	}
	ctx = logger.WithContext(ctx, logger.DocumentIDKey, job.DocumentID)

	if err := p.indexer.DeleteDocument(ctx, job.DocumentID, job.Filename); err != nil {
		return err
	}

	p.cache.InvalidateUser(ctx, job.UserID)
	if job.OrganizationID != 0 {
		p.cache.InvalidateOrganization(ctx, job.OrganizationID)
	}
	logger.Info(ctx, "document chunks deleted")
	return nil
}

func (p *Processor) markFailed(ctx context.Context, doc *entity.Document, reason string) {
	doc.MarkFailed(reason)
	if err := p.docRepo.Update(ctx, doc); err != nil {
		logger.Error(ctx, "failed to mark document failed", err, "document_id", doc.ID)
	}
	metrics.IndexingTotal.WithLabelValues(string(entity.ContentTypeGeneral), "failed").Inc()
	logger.Warn(ctx, "document indexing failed", "reason", reason)
}

func (p *Processor) invalidateCaches(ctx context.Context, doc *entity.Document) {
	p.cache.InvalidateUser(ctx, doc.UserID)
	if doc.IsOrganizationDocument() {
		p.cache.InvalidateOrganization(ctx, doc.OrganizationID)
	}
}
