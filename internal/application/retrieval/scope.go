package retrieval

import (
	"fmt"

	"avangard-rag-api/internal/domain/entity"
)

// Scope 检索范围。
type Scope string

const (
	// ScopePrivate 仅检索用户的私有文档。
	ScopePrivate Scope = "private"
	// ScopeOrganization 仅检索用户所属组织的共享文档。
	ScopeOrganization Scope = "organization"
	// ScopeAll 同时检索私有与组织文档。
	ScopeAll Scope = "all"
)

// ParseScope 解析检索范围，空字符串回退为 all。
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopePrivate, ScopeOrganization, ScopeAll:
		return Scope(s), nil
	case "":
		return ScopeAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

func (s Scope) String() string {
	return string(s)
}

// VectorFilter 单个检索分区的元数据过滤条件。
// 字段为零值时不参与过滤。
type VectorFilter struct {
	UserID         int64
	OrganizationID int64
	Visibility     entity.Visibility
	DocumentID     string
	Filename       string
}

// Filters 将检索范围展开为具体的过滤条件集合。
// organization 范围下用户未加入组织时返回空集，检索结果为空。
func (s Scope) Filters(userID, organizationID int64) []VectorFilter {
	private := VectorFilter{
		UserID:     userID,
		Visibility: entity.VisibilityPrivate,
	}
	org := VectorFilter{
		OrganizationID: organizationID,
		Visibility:     entity.VisibilityOrganization,
	}

	switch s {
	case ScopePrivate:
		return []VectorFilter{private}
	case ScopeOrganization:
		if organizationID == 0 {
			return nil
		}
		return []VectorFilter{org}
	default: // ScopeAll
		if organizationID == 0 {
			return []VectorFilter{private}
		}
		return []VectorFilter{org, private}
	}
}
