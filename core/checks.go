package core

import (
	"reflect"

	"github.com/kat-co/vala"
)

// IsNotNil is vala.IsNotNil for dependencies passed as interfaces. vala panics on kinds
// that cannot be nil; those are always set, e.g. a struct value implementing Logger.
func IsNotNil(obtained interface{}, paramName string) vala.Checker {
	if obtained != nil {
		switch reflect.ValueOf(obtained).Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		default:
			return func() (bool, string) { return true, "" }
		}
	}
	return vala.IsNotNil(obtained, paramName)
}
