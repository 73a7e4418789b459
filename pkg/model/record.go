package model

import "maps"

// Record is a handle to one row. It is created per request and never cached.
type Record struct {
	values map[string]any
	key    int64
}

// NewRecord returns a blank, unsaved record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// LoadRecord builds a persisted record from a row. Stores call it when scanning.
func LoadRecord(key int64, values map[string]any) *Record {
	if values == nil {
		values = make(map[string]any)
	}
	return &Record{key: key, values: values}
}

// Key returns the primary key value; zero means not yet persisted.
func (r *Record) Key() int64 {
	return r.key
}

// IsNew reports whether the record has never been saved.
func (r *Record) IsNew() bool {
	return r.key == 0
}

// SetKey records the key assigned by the store on insert.
func (r *Record) SetKey(key int64) {
	r.key = key
}

// Get returns the value of a column, or nil.
func (r *Record) Get(column string) any {
	return r.values[column]
}

// String returns a column value when it holds a string.
func (r *Record) String(column string) string {
	s, _ := r.values[column].(string)
	return s
}

// Set assigns a column value.
func (r *Record) Set(column string, v any) {
	r.values[column] = v
}

// Values returns a copy of all column values.
func (r *Record) Values() map[string]any {
	return maps.Clone(r.values)
}
