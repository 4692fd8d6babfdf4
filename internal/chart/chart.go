// Package chart derives a single label/value series from query rows.
package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/salesquery/salesquery/internal/query"
)

type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Project never fails. Field choice is made on the first row: the first
// string field labels the points and the first numeric field supplies the
// values. Without a string field the first field labels; without a numeric
// field the second field (or the first, if alone) supplies the values. A lone
// non-text field, such as a single aggregate, is labelled by its column name.
func Project(rows []query.Row) Series {
	series := Series{Labels: []string{}, Values: []float64{}}
	if len(rows) == 0 || rows[0].Len() == 0 {
		return series
	}

	columns := rows[0].Columns()
	values := rows[0].Values()

	labelIndex, valueIndex := -1, -1
	useColumnName := false
	for i, value := range values {
		if labelIndex < 0 && isText(value) {
			labelIndex = i
		}
		if valueIndex < 0 && isNumeric(value) {
			valueIndex = i
		}
	}
	if labelIndex < 0 {
		labelIndex = 0
		useColumnName = len(columns) == 1
	}
	if valueIndex < 0 {
		valueIndex = 0
		if len(columns) > 1 {
			valueIndex = 1
		}
	}

	labelColumn, valueColumn := columns[labelIndex], columns[valueIndex]
	for _, row := range rows {
		label := labelColumn
		if !useColumnName {
			v, _ := row.Get(labelColumn)
			label = toLabel(v)
		}
		v, _ := row.Get(valueColumn)
		series.Labels = append(series.Labels, label)
		series.Values = append(series.Values, toNumber(v))
	}
	return series
}

func isText(value any) bool {
	_, ok := value.(string)
	return ok
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func toLabel(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	default:
		return fmt.Sprint(typed)
	}
}

func toNumber(value any) float64 {
	switch typed := value.(type) {
	case int:
		return float64(typed)
	case int8:
		return float64(typed)
	case int16:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint8:
		return float64(typed)
	case uint16:
		return float64(typed)
	case uint32:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	case float64:
		return typed
	case bool:
		if typed {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
