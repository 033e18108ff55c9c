package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath returns the path of the local override file for a config file,
// "config.json5" becomes "config.local.json5".
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// readLayer decodes a single json5 file into out. A missing file is reported
// through found=false rather than an error.
func readLayer[T any](path string, out *T) (found bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// explicitSlices makes a slice set in a layer replace the one below it, even
// when it is empty. Only a slice left out of the layer (nil) keeps the
// lower value.
type explicitSlices struct{}

func (explicitSlices) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ.Kind() != reflect.Slice {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// Overlay merges layer on top of dst. Non-zero fields of layer win, slices
// present in layer replace dst's.
func Overlay[T any](dst *T, layer T) error {
	return mergo.Merge(dst, layer, mergo.WithOverride, mergo.WithTransformers(explicitSlices{}))
}

// ReadLayers decodes a json5 configuration file and its local override (see
// LocalPath) separately, in that order, skipping whichever does not exist.
// os.ErrNotExist is returned when neither file exists.
func ReadLayers[T any](name string) ([]T, error) {
	var layers []T
	for _, path := range []string{name, LocalPath(name)} {
		var layer T
		found, err := readLayer(path, &layer)
		if err != nil {
			return nil, err
		}
		if found {
			layers = append(layers, layer)
		}
	}
	if len(layers) == 0 {
		return nil, os.ErrNotExist
	}
	if len(layers) > 1 {
		slog.Debug("merging config with local overrides", "local", LocalPath(name))
	}
	return layers, nil
}

// ReadConfig reads a json5 configuration file and merges the values of its
// local override on top with Overlay. os.ErrNotExist is returned when
// neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	layers, err := ReadLayers[T](name)
	if err != nil {
		return out, err
	}
	for _, layer := range layers {
		err = Overlay(&out, layer)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", name, err)
		}
	}
	return out, nil
}

// ReadRecursively walks up from the working directory until it finds a
// config file called name, then reads it with ReadConfig.
func ReadRecursively[T any](name string) (T, error) {
	var empty T

	current, err := os.Getwd()
	if err != nil {
		return empty, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return empty, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return empty, os.ErrNotExist
		}
		current = parent
	}
}
