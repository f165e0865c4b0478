package codec

import (
	"reflect"
	"strings"
	"sync"

	"github.com/stoewer/go-strcase"
)

// TagName is the struct tag read by the codec.
const TagName = "jmap"

type field struct {
	name      string
	index     []int
	typ       reflect.Type
	required  bool
	omitEmpty bool
}

type structInfo struct {
	name   string
	fields []field
	byName map[string]int
}

var fieldCache sync.Map // reflect.Type -> *structInfo

func cachedStructInfo(t reflect.Type) *structInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(*structInfo)
	}
	info := &structInfo{name: t.Name(), byName: make(map[string]int)}
	collectFields(t, nil, info)
	actual, _ := fieldCache.LoadOrStore(t, info)
	return actual.(*structInfo)
}

func collectFields(t reflect.Type, parent []int, info *structInfo) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i
		if sf.Anonymous && tag == "" && sf.Type.Kind() == reflect.Struct {
			collectFields(sf.Type, index, info)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = strcase.LowerCamelCase(sf.Name)
		}
		f := field{name: name, index: index, typ: sf.Type}
		for _, opt := range strings.Split(opts, ",") {
			switch strings.TrimSpace(opt) {
			case "required":
				f.required = true
			case "omitempty":
				f.omitEmpty = true
			}
		}
		// Outer fields shadow promoted ones with the same wire name.
		if existing, ok := info.byName[name]; ok {
			if len(info.fields[existing].index) <= len(index) {
				continue
			}
			info.fields[existing] = f
			continue
		}
		info.byName[name] = len(info.fields)
		info.fields = append(info.fields, f)
	}
}
