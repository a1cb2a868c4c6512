package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes mapped to repository errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRep      = "22P02"
)

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrCategoryReference
		case pgInvalidTextRep:
			return ErrInvalidID
		}
	}
	return nil
}

func parsePgID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return parsed, nil
}

// whereBuilder accumulates parameterized conditions, numbering $n as it goes.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// add appends a condition; clause holds a single %d for the placeholder index.
func (b *whereBuilder) add(clause string, arg interface{}) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(clause, len(b.args)))
}

func (b *whereBuilder) in(column string, values []string) {
	if len(values) == 0 {
		b.clauses = append(b.clauses, "FALSE")
		return
	}
	placeholders := make([]string, 0, len(values))
	for _, v := range values {
		b.args = append(b.args, v)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(b.args)))
	}
	b.clauses = append(b.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
}

func (b *whereBuilder) applyTimestamps(q Query) {
	if q.CreatedAfter != nil {
		b.add("created_at >= $%d", *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		b.add("created_at < $%d", *q.CreatedBefore)
	}
	if q.UpdatedAfter != nil {
		b.add("updated_at >= $%d", *q.UpdatedAfter)
	}
	if q.UpdatedBefore != nil {
		b.add("updated_at < $%d", *q.UpdatedBefore)
	}
}

func (b *whereBuilder) String() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.clauses, " AND ")
}

// window appends ORDER BY, LIMIT and OFFSET. field must already be whitelisted.
func (b *whereBuilder) window(field string, q Query) string {
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}
	clause := fmt.Sprintf(" ORDER BY %s %s, id %s", field, direction, direction)
	if q.Limit > 0 {
		b.args = append(b.args, q.Limit)
		clause += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}
	if q.Offset > 0 {
		b.args = append(b.args, q.Offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(b.args))
	}
	return clause
}
