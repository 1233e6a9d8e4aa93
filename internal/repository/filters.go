package repository

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

// filterColumns names the columns a dashboard filter field applies to.
// An empty column disables the field for that query.
type filterColumns struct {
	Warehouse string
	SKU       string
	Class     string
	Status    string
	Search    []string
}

// buildDashboardFilterClause constructs the WHERE fragments for dashboard
// queries, using '?' placeholders.
func buildDashboardFilterClause(filter domain.DashboardFilter, cols filterColumns) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if filter.Warehouse != "" && cols.Warehouse != "" {
		clauses = append(clauses, cols.Warehouse+" = ?")
		args = append(args, strings.TrimSpace(filter.Warehouse))
	}

	if filter.SKU != "" && cols.SKU != "" {
		clauses = append(clauses, cols.SKU+" = ?")
		args = append(args, strings.TrimSpace(filter.SKU))
	}

	if filter.Class != "" && cols.Class != "" {
		clauses = append(clauses, cols.Class+" = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Class)))
	}

	if filter.Status != "" && cols.Status != "" {
		clauses = append(clauses, cols.Status+" = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Status)))
	}

	if strings.TrimSpace(filter.Search) != "" && len(cols.Search) > 0 {
		like := make([]string, len(cols.Search))
		for i, c := range cols.Search {
			like[i] = fmt.Sprintf("LOWER(%s) LIKE ?", c)
			args = append(args, sqlstore.Contains(filter.Search))
		}
		clauses = append(clauses, "("+strings.Join(like, " OR ")+")")
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

// paginate appends LIMIT/OFFSET to query.
func paginate(query string, args []any, filter domain.DashboardFilter) (string, []any) {
	filter.Normalize()
	return query + " LIMIT ? OFFSET ?", append(args, filter.PageSize, filter.Offset())
}
