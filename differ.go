package castore

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Differ computes the fields of incoming that should overwrite orig.
// Fields outside the patch keep whatever the store currently holds, so a
// client holding a stale copy cannot clobber concurrent changes it never made.
type Differ[T Record] interface {
	Diff(orig, incoming T) (Patch[T], error)
}

// FieldDiffer diffs exported struct fields by reflection. Embedded structs are
// flattened. ID, CreateTime and DelFlag never appear in a patch; UpdateTime
// and UpdateBy always do.
//
// A zero incoming value means "not supplied" and is skipped unless
// IncludeZero is set.
type FieldDiffer[T Record] struct {
	IncludeZero bool
}

var (
	timeType = reflect.TypeOf(time.Time{})

	skipFields   = map[string]bool{"ID": true, "CreateTime": true, "DelFlag": true}
	alwaysFields = map[string]bool{"UpdateTime": true, "UpdateBy": true}
)

func (d FieldDiffer[T]) Diff(orig, incoming T) (Patch[T], error) {
	if isNil(orig) || isNil(incoming) {
		return Patch[T]{}, errors.New("castore: diff of nil record")
	}
	ov := reflect.ValueOf(orig).Elem()
	iv := reflect.ValueOf(incoming).Elem()
	if ov.Kind() != reflect.Struct || ov.Type() != iv.Type() {
		return Patch[T]{}, fmt.Errorf("castore: cannot diff %T", orig)
	}

	var changed []string
	walkFields(ov, iv, func(name string, o, i reflect.Value) {
		switch {
		case skipFields[name]:
		case alwaysFields[name]:
			changed = append(changed, name)
		case i.IsZero() && !d.IncludeZero:
		case !equalValue(o, i):
			changed = append(changed, name)
		}
	})
	return Patch[T]{ID: orig.GetModel().ID, Record: incoming, Fields: changed}, nil
}

func walkFields(o, i reflect.Value, fn func(name string, o, i reflect.Value)) {
	t := o.Type()
	for n := 0; n < t.NumField(); n++ {
		f := t.Field(n)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Type != timeType {
			walkFields(o.Field(n), i.Field(n), fn)
			continue
		}
		if !f.IsExported() {
			continue
		}
		fn(f.Name, o.Field(n), i.Field(n))
	}
}

func equalValue(a, b reflect.Value) bool {
	if a.Type() == timeType {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}
