package bridge

import (
	"context"
	"encoding/json"

	"github.com/riwaq/riwaq-go/queryir"
)

// QueryInto runs req as a query and decodes the returned rows into []T.
// A null payload yields an empty slice.
func QueryInto[T any](ctx context.Context, c *Client, req queryir.Request) ([]T, error) {
	data, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if isJSONNull(data) {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &Error{Code: ErrCodeDecode, Message: "decode rows", Op: OpQuery, Err: err}
	}
	return rows, nil
}
