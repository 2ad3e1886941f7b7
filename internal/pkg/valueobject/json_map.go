// Package valueobject holds small value types shared across modules.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrScanValueNotBytes indicates the database value is not JSON text.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap stores an arbitrary JSON object, typically in a jsonb column.
type JSONMap map[string]any

// Value implements driver.Valuer. A nil map is stored as an empty object.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	var result JSONMap
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	if result == nil {
		result = JSONMap{}
	}

	*j = result
	return nil
}

// Merge returns a new map holding j overlaid with others, later maps winning.
func (j JSONMap) Merge(others ...JSONMap) JSONMap {
	maps := make([]map[string]any, 0, len(others)+1)
	maps = append(maps, j)
	for _, o := range others {
		maps = append(maps, o)
	}
	return JSONMap(lo.Assign(maps...))
}

// GetString returns the value under key rendered as text, or "" when absent.
func (j JSONMap) GetString(key string) string {
	switch v := j[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// StringMap returns a copy with every value rendered as text.
func (j JSONMap) StringMap() map[string]string {
	return lo.MapValues(j, func(_ any, k string) string {
		return j.GetString(k)
	})
}
