// Package docstore is a small collection-oriented document store
// abstraction: exact-match filters, find/count/insert and keyed upserts.
// Storage identifiers (_id, row ids) never leave this package.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("docstore: closed")

// Filter is an exact-match filter: every key must equal its value.
type Filter map[string]any

type FindOptions struct {
	// Fields restricts decoded documents to these fields. Empty means all.
	Fields []string
}

type FindOption func(*FindOptions)

func WithFields(fields ...string) FindOption {
	return func(o *FindOptions) { o.Fields = append(o.Fields, fields...) }
}

type Store interface {
	// Find decodes every matching document into out, which must be a
	// pointer to a slice.
	Find(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) error
	// FindOne decodes the first match into out and reports whether one
	// existed. A miss is not an error.
	FindOne(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) (bool, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	InsertOne(ctx context.Context, collection string, doc any) error
	// UpsertOne sets doc's fields on the first document matching filter,
	// inserting filter+doc when nothing matches. It reports whether a new
	// document was inserted.
	UpsertOne(ctx context.Context, collection string, filter Filter, doc any) (bool, error)
	// UpdateOne sets the given fields on the first match. It reports
	// whether a document matched; nothing is inserted.
	UpdateOne(ctx context.Context, collection string, filter Filter, set map[string]any) (bool, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func applyFindOptions(opts []FindOption) FindOptions {
	var o FindOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// normalize flattens named types (types.Tier, FlexInt, ...) and sized
// numeric types to string/int64/float64/bool so every backend compares
// the same way.
func (f Filter) normalize() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = normalizeValue(v)
	}
	return out
}

func (f Filter) keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem().Interface())
	default:
		return v
	}
}

func checkSlicePtr(out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: out must be a non-nil pointer to a slice, got %T", out)
	}
	return nil
}
