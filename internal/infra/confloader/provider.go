package confloader

import (
	"errors"
	"strings"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by map provider")

// mapProvider is a koanf provider that loads configuration from a map with
// dotted keys, such as values collected from command-line flags.
type mapProvider map[string]any

// ReadBytes is not supported; koanf uses Read for this provider.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the configuration map, expanding dotted keys into nested maps.
func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		setPath(out, k, v)
	}
	return out, nil
}

func setPath(dst map[string]any, path string, v any) {
	for {
		i := strings.IndexByte(path, '.')
		if i < 0 {
			dst[path] = v
			return
		}
		head := path[:i]
		next, ok := dst[head].(map[string]any)
		if !ok {
			next = make(map[string]any)
			dst[head] = next
		}
		dst, path = next, path[i+1:]
	}
}
