package querybuilder

import (
	"fmt"
	"reflect"

	"github.com/jmoiron/sqlx/reflectx"
)

var modelMapper = reflectx.NewMapper("db")

// InsertModel inserts the top-level db-tagged fields of model in
// declaration order.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

func modelColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	fields := modelMapper.TypeMap(value.Type()).Index
	cols := make([]string, 0, len(fields))
	vals := make([]any, 0, len(fields))
	for _, fi := range fields {
		if len(fi.Index) != 1 || fi.Embedded || fi.Field.Tag.Get("db") == "" {
			continue
		}
		cols = append(cols, fi.Name)
		vals = append(vals, value.Field(fi.Index[0]).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
