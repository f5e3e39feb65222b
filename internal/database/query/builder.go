// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs parameterized SQL WHERE clauses.
//
//	wb := query.NewWhereBuilder()
//	wb.AddIn("status", "active", "full")
//	wb.AddStartsAfter(now)
//	wb.AddNotDeleted()
//	where, args := wb.Build()
//	// status IN (?, ?) AND start_time >= ? AND deleted_at IS NULL
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddIn adds "column IN (?, ...)". An empty value list matches nothing,
// so the clause becomes "1=0" rather than being skipped.
func AddIn[T ~string](wb *WhereBuilder, column string, values []T) *WhereBuilder {
	if len(values) == 0 {
		wb.clauses = append(wb.clauses, "1=0")
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, string(v))
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddStartsAfter keeps rows whose start_time is at or after t.
func (wb *WhereBuilder) AddStartsAfter(t time.Time) *WhereBuilder {
	return wb.AddClause("start_time >= ?", t.UTC())
}

// AddNotDeleted excludes soft-deleted rows.
func (wb *WhereBuilder) AddNotDeleted() *WhereBuilder {
	return wb.AddClause("deleted_at IS NULL")
}

// Build joins the clauses with AND. An empty builder yields "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses were added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
