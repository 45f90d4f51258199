package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/NordCoder/apiwatch/internal/domain/query"
)

func TestOrderBy(t *testing.T) {
	assert.Equal(t, " ORDER BY created_date DESC NULLS LAST, id",
		orderBy(query.ParseSort("-created_date"), monitorColumns, monitorDefaultSort))
	assert.Equal(t, " ORDER BY name ASC, id",
		orderBy(query.ParseSort("name"), apiTestColumns, apiTestDefaultSort))
	// unknown or hostile fields never reach the SQL text
	assert.Equal(t, " ORDER BY last_tested DESC NULLS LAST, id",
		orderBy(query.ParseSort("name; DROP TABLE api_tests"), apiTestColumns, apiTestDefaultSort))
	assert.Equal(t, " ORDER BY last_tested DESC NULLS LAST, id",
		orderBy(query.Sort{}, apiTestColumns, apiTestDefaultSort))
}

func TestMapPgErr(t *testing.T) {
	assert.NoError(t, mapPgErr(nil))
	assert.ErrorIs(t, mapPgErr(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapPgErr(&pgconn.PgError{Code: pgUniqueViolation}), ErrConflict)
	assert.ErrorIs(t, mapPgErr(&pgconn.PgError{Code: pgNotNull}), ErrConstraint)

	other := errors.New("boom")
	assert.Equal(t, other, mapPgErr(other))
}
