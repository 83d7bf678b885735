// internal/types/interfaces.go
package types

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned by Store.Get when no record has the key.
var ErrNotFound = errors.New("record not found")

// Record is one schemaless row of a table.
type Record map[string]any

// Table names a store table and its key attribute.
type Table struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// KeyOf returns the key attribute of rec rendered as a string.
func (t Table) KeyOf(rec Record) (string, error) {
	v, ok := rec[t.Key]
	if !ok || v == nil {
		return "", fmt.Errorf("record has no %q attribute for table %s", t.Key, t.Name)
	}
	key := Scalar(v)
	if key == "" {
		return "", fmt.Errorf("record has empty %q attribute for table %s", t.Key, t.Name)
	}
	return key, nil
}

// Filter selects records whose Field equals Equals when rendered as text.
type Filter struct {
	Field  string
	Equals string
}

// Match reports whether rec passes the filter. A nil filter matches everything.
func (f *Filter) Match(rec Record) bool {
	if f == nil {
		return true
	}
	v, ok := rec[f.Field]
	if !ok || v == nil {
		return false
	}
	return Scalar(v) == f.Equals
}

// Scalar renders a JSON scalar the way filters and keys compare it.
func Scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Store is the key-value persistence collaborator shared by all runs.
// Implementations guarantee per-key atomicity only.
type Store interface {
	Get(ctx context.Context, table Table, key string) (Record, error)
	Put(ctx context.Context, table Table, rec Record) error
	Scan(ctx context.Context, table Table, filter *Filter) ([]Record, error)
	Close() error
}
