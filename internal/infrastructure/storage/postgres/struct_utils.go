package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags, handling
// embedded structs (like entity.Base) recursively. Called once at repository
// construction, so reflection overhead is acceptable.
func ExtractDBColumns[T any]() []string {
	var zero T
	return extractColumnsFromType(reflect.TypeOf(zero))
}

func extractColumnsFromType(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			cols = append(cols, extractColumnsFromType(field.Type)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// columnIndex caches field index paths per type (thread-safe).
var columnIndex sync.Map // map[reflect.Type]map[string][]int

// StructToMap converts a struct to a column→value map using its "db" tags,
// recursing into embedded structs. Used by repositories to build INSERT
// statements without hand-listing every column.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	index := indexForType(rv.Type())
	out := make(map[string]any, len(index))
	for col, path := range index {
		out[col] = rv.FieldByIndex(path).Interface()
	}
	return out
}

func indexForType(t reflect.Type) map[string][]int {
	if cached, ok := columnIndex.Load(t); ok {
		return cached.(map[string][]int)
	}

	index := make(map[string][]int)
	buildIndex(t, nil, index)
	columnIndex.Store(t, index)
	return index
}

func buildIndex(t reflect.Type, prefix []int, index map[string][]int) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int{}, prefix...), i)

		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				buildIndex(ft, path, index)
				continue
			}
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		index[tag] = path
	}
}
