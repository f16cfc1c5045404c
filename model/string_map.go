package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringMap is a map[string]string stored as a JSON object. It is the
// single representation for the per-user wallpaper and nickname maps,
// both in the database and in API responses.
type StringMap map[string]string

// Value implements the driver.Valuer interface
func (m StringMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		b, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan StringMap, %v", value)
		}

		str = string(b)
	}

	if str == "" {
		*m = StringMap{}
		return nil
	}

	return json.Unmarshal([]byte(str), m)
}
