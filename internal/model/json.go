package model

import (
	"database/sql/driver"
	"encoding/json"
)

type JSONMap map[string]interface{}

func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*j = result
	return nil
}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j JSONMap) Get(key string) (interface{}, bool) {
	val, ok := j[key]
	return val, ok
}

func (j JSONMap) GetString(key string) string {
	if val, ok := j[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (j JSONMap) GetBool(key string) bool {
	if val, ok := j[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

// Clone returns a deep copy produced by a JSON round trip, so mutations on
// the copy never leak back into cached rows.
func (j JSONMap) Clone() JSONMap {
	if j == nil {
		return nil
	}
	raw, err := json.Marshal(j)
	if err != nil {
		return JSONMap{}
	}
	var out JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return JSONMap{}
	}
	return out
}
