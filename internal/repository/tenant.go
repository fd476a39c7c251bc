package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// ErrStaleLead is returned when a conditional lead update matched no row because
// the lead changed or vanished since it was read
var ErrStaleLead = errors.New("lead changed concurrently")

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // API field name
	Order SortOrder // asc or desc
}

// DefaultSortConfig returns updatedAt DESC
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "updatedAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause maps an API sort field through the whitelist fieldMap,
// falling back to defaultColumn
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// NormalizePage clamps page and page size into their valid ranges
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ApplyVendorFilter scopes a query to one vendor. Every lead-owned table carries vendor_id.
func ApplyVendorFilter(query *gorm.DB, vendorID uuid.UUID) *gorm.DB {
	return query.Where("vendor_id = ?", vendorID)
}

// ApplyVendorFilterWithAlias scopes a joined query on the given table alias
func ApplyVendorFilterWithAlias(query *gorm.DB, tableAlias string, vendorID uuid.UUID) *gorm.DB {
	return query.Where(tableAlias+".vendor_id = ?", vendorID)
}
