// Package messaging 提供基于 Redis Stream 的消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// 消息类型
const (
	TypeDocumentIndex  = "document_index"
	TypeDocumentDelete = "document_delete"
)

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("序列化消息失败: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("发布消息失败: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishIndexJob 发布文档索引任务
func (p *Producer) PublishIndexJob(ctx context.Context, job *DocumentIndexMessage) (string, error) {
	msg, err := NewMessage(job.DocumentID, TypeDocumentIndex, job.UserID, job.OrganizationID, job)
	if err != nil {
		return "", err
	}

	if job.Reindex {
		msg.SetMetadata("reindex", "true")
	}
	return p.Publish(ctx, StreamDocumentIndex, msg)
}

// PublishDeleteJob 发布文档删除任务
func (p *Producer) PublishDeleteJob(ctx context.Context, job *DocumentDeleteMessage) (string, error) {
	msg, err := NewMessage(job.DocumentID, TypeDocumentDelete, job.UserID, job.OrganizationID, job)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamDocumentDelete, msg)
}

// DocumentIndexMessage 文档索引任务消息
type DocumentIndexMessage struct {
	DocumentID     string `json:"document_id"`
	UserID         int64  `json:"user_id"`
	OrganizationID int64  `json:"organization_id,omitempty"`
	Filename       string `json:"filename"`
	MimeType       string `json:"mime_type,omitempty"`
	// StoragePath 原始文件在对象存储/本地磁盘中的位置
	StoragePath string `json:"storage_path"`
	Reindex     bool   `json:"reindex,omitempty"`
}

// DocumentDeleteMessage 文档删除任务消息
type DocumentDeleteMessage struct {
	DocumentID     string `json:"document_id"`
	UserID         int64  `json:"user_id"`
	OrganizationID int64  `json:"organization_id,omitempty"`
	Filename       string `json:"filename"`
}
