// FilePath: internal/repository/postgres/postgres.admin.go
package postgres

import (
	"context"
	"strings"

	"github.com/verdelab/greenhub/internal/database"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/repository"
)

type AdminRepo struct {
	PostgresBaseRepo
}

func NewAdminRepository(db database.DB) repository.AdminRepository {
	repo := &PostgresBaseRepo{db: db}
	return &AdminRepo{PostgresBaseRepo: *repo}
}

// RunReadOnlyQuery executes an ad-hoc SELECT through the execute_readonly_sql
// server-side procedure. The SELECT-only guard here is a second line of
// defense; the procedure itself runs in a read-only transaction.
func (r *AdminRepo) RunReadOnlyQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return nil, errors.NewValidationError("only SELECT statements are allowed", nil)
	}

	rows, err := r.db.GetDB().QueryxContext(ctx, `SELECT execute_readonly_sql($1) AS row`, trimmed)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to run query", err)
	}
	defer rows.Close()

	results := []map[string]interface{}{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, errors.NewDatabaseError("failed to scan query result", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("failed to read query results", err)
	}

	return results, nil
}
