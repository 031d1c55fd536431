package model

import (
	"fmt"
	"sort"
)

// Entry is a user-declared catalog record.
type Entry struct {
	EventType   string
	Description string
	ID          string
	// Fields holds the type-specific fields of the entry.
	Fields map[string]any
}

// Declaration is an Entry together with the key it was declared under.
type Declaration struct {
	Key   string
	Entry Entry
}

// Reserved field names understood by every input format.
const (
	FieldEventType   = "eventType"
	FieldDescription = "description"
	FieldID          = "id"
)

// EntryFromMap splits a generic decoded object (YAML, JSON) into an Entry.
// The reserved fields are lifted out; everything else lands in Fields.
// Non-string ids are formatted so that numeric ids behave like strings.
func EntryFromMap(raw map[string]any) Entry {
	e := Entry{Fields: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case FieldEventType:
			e.EventType = stringify(v)
		case FieldDescription:
			e.Description = stringify(v)
		case FieldID:
			e.ID = stringify(v)
		default:
			e.Fields[k] = v
		}
	}
	return e
}

// Field returns a type-specific field.
func (e Entry) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// StringField returns a type-specific field when it holds a non-empty string.
func (e Entry) StringField(name string) (string, bool) {
	v, ok := e.Fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// FieldNames returns the type-specific field names, sorted.
func (e Entry) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// RequireStrings returns one validation error per named field that is
// missing or not a non-empty string, in the order given.
func RequireStrings(e Entry, names ...string) []string {
	var errs []string
	for _, name := range names {
		if _, ok := e.StringField(name); !ok {
			errs = append(errs, fmt.Sprintf("Missing required field %q.", name))
		}
	}
	return errs
}

func stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	default:
		return fmt.Sprint(tv)
	}
}
