package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
	"github.com/NordCoder/apiwatch/internal/domain/query"
)

var _ apitest.Repo = (*APITestRepoImpl)(nil)

type APITestRepoImpl struct {
	db *DB
}

func NewAPITestRepo(db *DB) *APITestRepoImpl { return &APITestRepoImpl{db: db} }

var apiTestColumns = map[string]string{
	"name":         "name",
	"method":       "method",
	"url":          "url",
	"status":       "status",
	"last_tested":  "last_tested",
	"created_date": "created_date",
	"updated_date": "updated_date",
}

var apiTestDefaultSort = query.Desc("last_tested")

const (
	apiTestSelect = `
SELECT id, name, method, url, headers, query_params, body, documentation, tags,
       status, response, response_headers, last_tested, created_date, updated_date
FROM api_tests`

	qTestInsert = `
INSERT INTO api_tests (id, name, method, url, headers, query_params, body, documentation, tags,
                       status, response, response_headers, last_tested)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9::jsonb, $10, $11, $12::jsonb, $13)
RETURNING created_date, updated_date;`

	qTestUpdate = `
UPDATE api_tests
SET name = $2, method = $3, url = $4, headers = $5::jsonb, query_params = $6::jsonb,
    body = $7, documentation = $8, tags = $9::jsonb,
    status = $10, response = $11, response_headers = $12::jsonb, last_tested = $13,
    updated_date = now()
WHERE id = $1
RETURNING created_date, updated_date;`

	qTestDelete = `DELETE FROM api_tests WHERE id = $1;`
)

func scanTest(row pgx.Row, t *apitest.Test) error {
	var headers, params, tags, respHeaders []byte
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Method,
		&t.URL,
		&headers,
		&params,
		&t.Body,
		&t.Documentation,
		&tags,
		&t.Status,
		&t.Response,
		&respHeaders,
		&t.LastTested,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if err := mapPgErr(err); err == ErrNotFound {
			return err
		}
		return fmt.Errorf("scan api test: %w", err)
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{headers, &t.Headers},
		{params, &t.QueryParams},
		{tags, &t.Tags},
		{respHeaders, &t.ResponseHeaders},
	} {
		if err := fromJSON(f.raw, f.dst); err != nil {
			return fmt.Errorf("decode api test %s: %w", t.ID, err)
		}
	}
	t.Normalize()
	return nil
}

type testArgs struct {
	headers, params, tags, respHeaders string
}

func encodeTest(t *apitest.Test) (testArgs, error) {
	t.Normalize()
	var (
		a   testArgs
		err error
	)
	if a.headers, err = toJSON(t.Headers); err != nil {
		return a, err
	}
	if a.params, err = toJSON(t.QueryParams); err != nil {
		return a, err
	}
	if a.tags, err = toJSON(t.Tags); err != nil {
		return a, err
	}
	if a.respHeaders, err = toJSON(t.ResponseHeaders); err != nil {
		return a, err
	}
	return a, nil
}

func (r *APITestRepoImpl) List(ctx context.Context, sort query.Sort) ([]*apitest.Test, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := apiTestSelect + orderBy(sort, apiTestColumns, apiTestDefaultSort)
	rows, err := r.db.execQueryer(ctx).Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query api tests: %w", err)
	}
	defer rows.Close()

	var out []*apitest.Test
	for rows.Next() {
		var t apitest.Test
		if err := scanTest(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *APITestRepoImpl) Get(ctx context.Context, id string) (*apitest.Test, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t apitest.Test
	if err := scanTest(r.db.execQueryer(ctx).QueryRow(ctx, apiTestSelect+` WHERE id = $1;`, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *APITestRepoImpl) Create(ctx context.Context, t *apitest.Test) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	a, err := encodeTest(t)
	if err != nil {
		return fmt.Errorf("encode api test: %w", err)
	}

	err = r.db.execQueryer(ctx).QueryRow(ctx, qTestInsert,
		t.ID, t.Name, string(t.Method), t.URL, a.headers, a.params, t.Body, t.Documentation, a.tags,
		t.Status, t.Response, a.respHeaders, t.LastTested,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert api test: %w", mapPgErr(err))
	}
	return nil
}

func (r *APITestRepoImpl) Update(ctx context.Context, t *apitest.Test) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	a, err := encodeTest(t)
	if err != nil {
		return fmt.Errorf("encode api test: %w", err)
	}

	err = r.db.execQueryer(ctx).QueryRow(ctx, qTestUpdate,
		t.ID, t.Name, string(t.Method), t.URL, a.headers, a.params, t.Body, t.Documentation, a.tags,
		t.Status, t.Response, a.respHeaders, t.LastTested,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err := mapPgErr(err); err == ErrNotFound {
			return err
		}
		return fmt.Errorf("update api test: %w", mapPgErr(err))
	}
	return nil
}

func (r *APITestRepoImpl) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qTestDelete, id)
	if err != nil {
		return fmt.Errorf("delete api test: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
