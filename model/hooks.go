package model

import (
	"reflect"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// fieldCheck validates one attribute on the write path. value is the
// attribute as held by the hook's receiver.
type fieldCheck struct {
	field    string
	value    interface{}
	validate func(string) error
}

func codename(field string, v interface{}) fieldCheck {
	return fieldCheck{field: field, value: v, validate: ValidateCodename}
}

func filename(field string, v interface{}) fieldCheck {
	return fieldCheck{field: field, value: v, validate: ValidateFilename}
}

func digest(field string, v interface{}) fieldCheck {
	return fieldCheck{field: field, value: v, validate: ValidateDigest}
}

// checkWrite runs checks against whatever tx is about to write. A create or a
// full save writes the receiver, so every check applies. Partial updates
// (a map, or a struct other than the model) only write the attributes they
// name, so only those are checked.
func checkWrite(tx *gorm.DB, checks ...fieldCheck) error {
	for _, c := range checks {
		v, ok := written(tx, c.field, c.value)
		if !ok {
			continue
		}
		if err := checkValue(c.validate, v); err != nil {
			return err
		}
	}
	return nil
}

// written returns the value tx writes to field, and false when tx leaves the
// field alone. receiver is the field as held by the hook's receiver.
func written(tx *gorm.DB, field string, receiver interface{}) (interface{}, bool) {
	stmt := tx.Statement
	if values, ok := stmt.Dest.(map[string]interface{}); ok {
		return mapValue(stmt.Schema, values, field)
	}
	if partial, dest := partialDest(stmt); partial && stmt.Schema != nil {
		f := stmt.Schema.LookUpField(field)
		if f == nil {
			return nil, false
		}
		v, zero := f.ValueOf(stmt.Context, dest)
		if zero {
			return nil, false
		}
		return v, true
	}
	return receiver, true
}

// partialDest reports whether stmt writes a struct other than its model, and
// returns that struct.
func partialDest(stmt *gorm.Statement) (bool, reflect.Value) {
	if stmt.Dest == nil || stmt.Model == nil {
		return false, reflect.Value{}
	}
	dest := reflect.ValueOf(stmt.Dest)
	model := reflect.ValueOf(stmt.Model)
	if dest.Kind() == reflect.Ptr && model.Kind() == reflect.Ptr && dest.Pointer() == model.Pointer() {
		return false, reflect.Value{}
	}
	dest = reflect.Indirect(dest)
	if dest.Kind() != reflect.Struct {
		return false, reflect.Value{}
	}
	return true, dest
}

func mapValue(s *schema.Schema, values map[string]interface{}, field string) (interface{}, bool) {
	keys := []string{field}
	if s != nil {
		if f := s.LookUpField(field); f != nil {
			keys = append(keys, f.DBName)
		}
	}
	for _, k := range keys {
		if v, ok := values[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func checkValue(validate func(string) error, v interface{}) error {
	switch v := v.(type) {
	case string:
		return validate(v)
	case *string:
		if v == nil {
			return nil
		}
		return validate(*v)
	case []string:
		for _, s := range v {
			if err := validate(s); err != nil {
				return err
			}
		}
	case datatypes.JSONSlice[string]:
		for _, s := range v {
			if err := validate(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// int64Value unwraps an integer id as found in a model field or an update
// map. It reports false for null and for anything that is not an integer.
func int64Value(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case *int64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}
