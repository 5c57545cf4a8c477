// FilePath: internal/greenservice/greenservice.admin.go
package greenservice

import (
	"context"
	"strings"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
)

const maxAdminQueryLength = 4096

// RunAdminQuery executes a read-only SQL query through the sandboxed
// server-side procedure. The procedure enforces read-only execution; the
// checks here just reject obvious misuse before the round trip.
func (s *GreenService) RunAdminQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationError("query is required", nil)
	}
	if len(query) > maxAdminQueryLength {
		return nil, errors.NewValidationError("query too long", nil)
	}
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		return nil, errors.NewValidationError("only SELECT queries are allowed", nil)
	}

	nuts.L.Infof("[AdminService] Running read-only query (%d chars)", len(query))
	rows, err := s.Admin.RunReadOnlyQuery(ctx, query)
	if err != nil {
		return nil, errors.NewDatabaseError("query execution failed", err)
	}
	return rows, nil
}
