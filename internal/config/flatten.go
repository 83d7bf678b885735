package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// schema describes every settable dot key of Config, derived from the
// struct's json tags. Fields tagged `secret:"true"` are masked on display.
type schema struct {
	keys    []string
	secrets map[string]bool
}

var configSchema = sync.OnceValue(func() schema {
	s := schema{secrets: map[string]bool{}}
	s.walk("", reflect.TypeFor[Config]())
	slices.Sort(s.keys)
	return s
})

func (s *schema) walk(prefix string, t reflect.Type) {
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := joinKey(prefix, name)
		if f.Type.Kind() == reflect.Struct {
			s.walk(key, f.Type)
			continue
		}
		s.keys = append(s.keys, key)
		if f.Tag.Get("secret") == "true" {
			s.secrets[key] = true
		}
	}
}

// Keys returns every config key in dot form, sorted.
func Keys() []string {
	return slices.Clone(configSchema().keys)
}

// IsKnownKey reports whether key names a config field.
func IsKnownKey(key string) bool {
	_, ok := slices.BinarySearch(configSchema().keys, key)
	return ok
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return configSchema().secrets[key]
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Flatten turns nested sections into dot keys: {"store": {"backend":
// "redis"}} becomes {"store.backend": "redis"}. Lists are leaves.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, section map[string]any)
	walk = func(prefix string, section map[string]any) {
		for k, v := range section {
			if child, ok := v.(map[string]any); ok {
				walk(joinKey(prefix, k), child)
				continue
			}
			out[joinKey(prefix, k)] = v
		}
	}
	walk("", m)
	return out
}

// Unflatten rebuilds nested sections from dot keys. A key that is both a
// value and a section ("store" and "store.backend") is an error. Keys are
// visited in sorted order, so a prefix is always placed before its children.
func Unflatten(flat map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(key, ".")
		section := out
		for i, part := range parts[:len(parts)-1] {
			next, ok := section[part]
			if !ok {
				next = make(map[string]any)
				section[part] = next
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config key %s conflicts with value at %s", key, strings.Join(parts[:i+1], "."))
			}
			section = child
		}
		section[parts[len(parts)-1]] = flat[key]
	}
	return out, nil
}

// MaskSecrets returns a copy of flat with non-empty credentials shown as
// "***" plus their last four characters.
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		s, ok := v.(string)
		if !IsSecretKey(k) || !ok || s == "" {
			out[k] = v
			continue
		}
		out[k] = "***" + s[max(0, len(s)-4):]
	}
	return out
}
