package toolbar

import (
	"reflect"
	"runtime"
	"strings"
)

// HandlerName returns the qualified name of a handler: "pkg/path.Func"
// for functions, including http.HandlerFunc conversions, and
// "pkg/path.Type" for anything else. Method values lose their "-fm"
// suffix. It returns "" for nil.
func HandlerName(obj interface{}) string {
	if obj == nil {
		return ""
	}

	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Func && !v.IsNil() {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			return strings.TrimSuffix(fn.Name(), "-fm")
		}
	}

	t := v.Type()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
