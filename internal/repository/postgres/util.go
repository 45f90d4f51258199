package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NordCoder/apiwatch/internal/domain/query"
)

var (
	ErrNotFound   = query.ErrNotFound
	ErrConflict   = query.ErrConflict
	ErrConstraint = errors.New("constraint violation")
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgNotNull         = "23502"
)

func mapPgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgCheckViolation, pgNotNull:
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.Message)
		}
	}
	return err
}

// orderBy renders an ORDER BY clause. Only whitelisted fields are accepted;
// anything else falls back to def.
func orderBy(s query.Sort, columns map[string]string, def query.Sort) string {
	col, ok := columns[s.Field]
	if !ok {
		s = def
		col = columns[def.Field]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC NULLS LAST"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id", col, dir)
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func fromJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
