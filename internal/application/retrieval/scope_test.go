package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avangard-rag-api/internal/domain/entity"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"private", ScopePrivate},
		{"organization", ScopeOrganization},
		{"all", ScopeAll},
		{"", ScopeAll},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseScopeInvalid(t *testing.T) {
	_, err := ParseScope("everything")
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestScopePrivateFilters(t *testing.T) {
	filters := ScopePrivate.Filters(42, 7)
	require.Len(t, filters, 1)
	assert.Equal(t, int64(42), filters[0].UserID)
	assert.Equal(t, entity.VisibilityPrivate, filters[0].Visibility)
	assert.Zero(t, filters[0].OrganizationID)
}

func TestScopeOrganizationFilters(t *testing.T) {
	filters := ScopeOrganization.Filters(42, 7)
	require.Len(t, filters, 1)
	assert.Equal(t, int64(7), filters[0].OrganizationID)
	assert.Equal(t, entity.VisibilityOrganization, filters[0].Visibility)
	assert.Zero(t, filters[0].UserID)
}

func TestScopeOrganizationWithoutOrgIsEmpty(t *testing.T) {
	assert.Empty(t, ScopeOrganization.Filters(42, 0))
}

func TestScopeAllFilters(t *testing.T) {
	filters := ScopeAll.Filters(42, 7)
	require.Len(t, filters, 2)
	// 组织分区在前，私有分区在后
	assert.Equal(t, int64(7), filters[0].OrganizationID)
	assert.Equal(t, entity.VisibilityOrganization, filters[0].Visibility)
	assert.Equal(t, int64(42), filters[1].UserID)
	assert.Equal(t, entity.VisibilityPrivate, filters[1].Visibility)
}

func TestScopeAllWithoutOrgOnlyPrivate(t *testing.T) {
	filters := ScopeAll.Filters(42, 0)
	require.Len(t, filters, 1)
	assert.Equal(t, int64(42), filters[0].UserID)
	assert.Equal(t, entity.VisibilityPrivate, filters[0].Visibility)
}
