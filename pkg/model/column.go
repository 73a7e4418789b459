package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ColumnType decides how submitted strings are parsed and which widget renders the column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeText   ColumnType = "text"
	TypeInt    ColumnType = "int"
	TypeBool   ColumnType = "bool"
)

// Surface is a bitmask of the pages a column appears on.
type Surface uint8

const (
	SurfaceNew Surface = 1 << iota
	SurfaceEdit
	SurfaceShow
	SurfaceBrowse
	SurfaceSearch

	SurfaceAll = SurfaceNew | SurfaceEdit | SurfaceShow | SurfaceBrowse | SurfaceSearch
)

var surfaceNames = map[string]Surface{
	"new":         SurfaceNew,
	"edit":        SurfaceEdit,
	"show":        SurfaceShow,
	"browse":      SurfaceBrowse,
	"search_form": SurfaceSearch,
	"all":         SurfaceAll,
}

// UnmarshalYAML accepts a list of surface names.
func (s *Surface) UnmarshalYAML(unmarshal func(any) error) error {
	var names []string
	if err := unmarshal(&names); err != nil {
		return err
	}
	var out Surface
	for _, name := range names {
		bit, ok := surfaceNames[strings.TrimSpace(name)]
		if !ok {
			return fmt.Errorf("%w: unknown surface %q", ErrInvalidManifest, name)
		}
		out |= bit
	}
	*s = out
	return nil
}

// Column describes one editable attribute of a model.
type Column struct {
	Name     string     `yaml:"name"`
	Label    string     `yaml:"label"`
	Type     ColumnType `yaml:"type"`
	Required bool       `yaml:"required"`
	Unique   bool       `yaml:"unique"`
	Surfaces Surface    `yaml:"surfaces"`
}

// On reports whether the column is rendered on the given surface.
func (c Column) On(s Surface) bool {
	if c.Surfaces == 0 {
		return true
	}
	return c.Surfaces&s != 0
}

// Parse converts a submitted string into the column's value.
// Empty input yields nil for every type except bool.
func (c Column) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch c.Type {
	case TypeInt:
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("is not a number")
		}
		return v, nil
	case TypeBool:
		switch strings.ToLower(raw) {
		case "", "0", "f", "false", "off", "no":
			return false, nil
		case "1", "t", "true", "on", "yes":
			return true, nil
		}
		return nil, errors.New("is not a boolean")
	default:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}
}

// Format renders a stored value as the string shown in forms and tables.
func (c Column) Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
