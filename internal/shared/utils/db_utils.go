package utils

import (
	"fmt"
	"reflect"
	"strings"
)

// BuildWhereClause joins conditions with AND and prefixes " WHERE ".
// It returns an empty string when there are no conditions.
func BuildWhereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// BuildUpdateQueryFromStruct builds "col = ?" parts for every non-nil pointer
// field of data listed in fieldToCol ("FieldName" -> "column_name").
// A pointer to an empty string is written as NULL, which is how optional
// text columns are cleared.
func BuildUpdateQueryFromStruct(data interface{}, fieldToCol map[string]string) ([]string, []interface{}) {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	var updates []string
	var args []interface{}

	for i := 0; i < val.NumField(); i++ {
		field := val.Type().Field(i)

		colName, ok := fieldToCol[field.Name]
		if !ok {
			continue
		}

		value := val.Field(i)
		if value.Kind() != reflect.Ptr || value.IsNil() {
			continue
		}

		elem := value.Elem()
		updates = append(updates, fmt.Sprintf("%s = ?", colName))
		if elem.Kind() == reflect.String && elem.String() == "" {
			args = append(args, nil)
			continue
		}
		args = append(args, elem.Interface())
	}

	return updates, args
}
