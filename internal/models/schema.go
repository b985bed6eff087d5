package models

import (
	"fmt"
	"math"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDField is the document identifier key used by the store and the API
const IDField = "_id"

// FieldType is the value type of a schema field
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldInteger
	FieldBool
	FieldStringList
)

// String returns the string representation of the field type
func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldInteger:
		return "integer"
	case FieldBool:
		return "boolean"
	case FieldStringList:
		return "list of strings"
	default:
		return "unknown"
	}
}

// Field describes one configuration field
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// DecodeMode selects which required-field rules apply when decoding a payload
type DecodeMode int

const (
	// ModeCreate enforces required fields
	ModeCreate DecodeMode = iota
	// ModeUpdate accepts any subset of fields
	ModeUpdate
)

// Schema enumerates the fields a configuration document may carry
type Schema struct {
	fields []Field
	index  map[string]Field
}

// NewSchema creates a schema from the given fields
func NewSchema(fields ...Field) *Schema {
	s := &Schema{
		fields: fields,
		index:  make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		s.index[f.Name] = f
	}
	return s
}

// ConfigurationSchema is the schema of stored configurations
var ConfigurationSchema = NewSchema(
	Field{Name: "name", Type: FieldString, Required: true},
	Field{Name: "description", Type: FieldString},
	Field{Name: "db_type", Type: FieldString},
	Field{Name: "host_port", Type: FieldString},
	Field{Name: "database", Type: FieldString},
	Field{Name: "username", Type: FieldString},
	Field{Name: "password", Type: FieldString},
	Field{Name: "llm_provider", Type: FieldString},
	Field{Name: "llm_model", Type: FieldString},
	Field{Name: "temperature", Type: FieldNumber},
	Field{Name: "max_tokens", Type: FieldInteger},
	Field{Name: "tables", Type: FieldStringList},
	Field{Name: "enabled", Type: FieldBool},
)

// Decode validates a request payload and returns a Configuration holding
// only the known fields that were present in it. Unknown keys and _id are
// dropped.
func (s *Schema) Decode(raw map[string]interface{}, mode DecodeMode) (Configuration, error) {
	cfg := Configuration{}
	for key, value := range raw {
		field, ok := s.index[key]
		if !ok {
			continue
		}
		if value == nil {
			if field.Required {
				return nil, NewError(KindInvalidPayload, fmt.Sprintf("field %q may not be null", key), nil)
			}
			cfg[key] = nil
			continue
		}
		converted, err := convert(field, value)
		if err != nil {
			return nil, NewError(KindInvalidPayload, err.Error(), nil)
		}
		cfg[key] = converted
	}

	if mode == ModeCreate {
		for _, f := range s.fields {
			if !f.Required {
				continue
			}
			if _, ok := cfg[f.Name]; !ok {
				return nil, NewError(KindInvalidPayload, fmt.Sprintf("field %q is required", f.Name), nil)
			}
		}
	}

	return cfg, nil
}

// Normalize converts a document read from a store into a Configuration.
// Values that do not match the schema are kept as stored.
func (s *Schema) Normalize(doc map[string]interface{}) Configuration {
	cfg := Configuration{}
	for key, value := range doc {
		if key == IDField {
			cfg[IDField] = idString(value)
			continue
		}
		field, ok := s.index[key]
		if !ok {
			continue
		}
		if value == nil {
			cfg[key] = nil
			continue
		}
		if converted, err := convert(field, value); err == nil {
			cfg[key] = converted
		} else {
			cfg[key] = value
		}
	}
	return cfg
}

func convert(field Field, value interface{}) (interface{}, error) {
	switch field.Type {
	case FieldString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case FieldBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case FieldNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case FieldInteger:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			// int64(v) is undefined outside the int64 range
			if v == math.Trunc(v) && v >= -(1<<63) && v < 1<<63 {
				return int64(v), nil
			}
		}
	case FieldStringList:
		switch v := value.(type) {
		case []string:
			return v, nil
		case []interface{}:
			return stringList(field.Name, v)
		case primitive.A:
			return stringList(field.Name, v)
		}
	}
	return nil, fmt.Errorf("field %q must be a %s", field.Name, field.Type)
}

func stringList(name string, items []interface{}) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %q must be a list of strings", name)
		}
		out = append(out, str)
	}
	return out, nil
}

func idString(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Configuration is a presence-aware configuration document: a key exists
// only when the field was explicitly set.
type Configuration map[string]interface{}

// ID returns the string identifier, or "" for documents not yet stored
func (c Configuration) ID() string {
	id, _ := c[IDField].(string)
	return id
}

// Has reports whether the field was set
func (c Configuration) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Keys returns the set field names, sorted, excluding _id
func (c Configuration) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		if k == IDField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithoutID returns a copy of the document without its identifier
func (c Configuration) WithoutID() Configuration {
	out := make(Configuration, len(c))
	for k, v := range c {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// WithID returns a copy of the document annotated with the given identifier
func (c Configuration) WithID(id string) Configuration {
	out := c.WithoutID()
	out[IDField] = id
	return out
}
