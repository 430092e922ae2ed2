package confloader

import (
	"reflect"
	"strings"
)

// envKeyIndex maps the underscore form of every koanf path in target
// ("server_redis_read_timeout") to the dotted path ("server.redis.read_timeout").
func envKeyIndex(target any) map[string]string {
	idx := make(map[string]string)
	t := reflect.TypeOf(target)
	if t == nil {
		return idx
	}
	collectPaths(t, "", idx)
	return idx
}

func collectPaths(t reflect.Type, prefix string, idx map[string]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		if prefix != "" {
			idx[strings.ReplaceAll(prefix, ".", "_")] = prefix
		}
		return
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("koanf")
		if name == "" || name == "-" {
			name = strings.ToLower(f.Name)
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		collectPaths(f.Type, path, idx)
	}
}
