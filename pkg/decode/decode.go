package decode

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Options customizes decoding.
type Options struct {
	// WeaklyTypedInput enables lenient conversions such as "8.5" -> float64
	// or a single string -> []string. Enabled by default.
	WeaklyTypedInput bool
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// JSON decodes a schemaless JSON object into out (a pointer to a struct
// tagged with `json`). Decoding is best effort: a field that cannot be
// decoded keeps its zero value, every other field is still filled, and the
// returned error lists what was skipped. A document that is empty or null
// decodes to nothing without error.
func JSON(raw []byte, out any, opts ...Options) error {
	m, err := Object(raw)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	return Map(m, out, opts...)
}

// Object parses raw into a generic JSON object. Double-encoded documents
// (a JSON string holding an object) are unwrapped once.
func Object(raw []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("document is a string, not an object")
		}
	}

	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	default:
		return nil, fmt.Errorf("document is %T, not an object", v)
	}
}

// Map decodes a generic map into out. See JSON for the error semantics.
func Map(m map[string]any, out any, opts ...Options) error {
	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringToObjectHook(),
			sliceToStringSliceHook(),
		),
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}

	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// sliceToStringSliceHook flattens []any into []string when the target is a
// string slice. Non-string elements are JSON encoded.
func sliceToStringSliceHook() mapstructure.DecodeHookFuncType {
	stringSlice := reflect.TypeOf([]string(nil))
	return func(from, to reflect.Type, data any) (any, error) {
		if to != stringSlice {
			return data, nil
		}
		src, ok := data.([]any)
		if !ok {
			return data, nil
		}
		out := make([]string, 0, len(src))
		for _, it := range src {
			switch v := it.(type) {
			case string:
				out = append(out, v)
			case nil:
			default:
				b, _ := json.Marshal(v)
				out = append(out, string(b))
			}
		}
		return out, nil
	}
}

// jsonStringToObjectHook decodes nested JSON strings when the target is a
// struct, map or slice.
func jsonStringToObjectHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		switch to.Kind() {
		case reflect.Map, reflect.Struct, reflect.Slice:
		default:
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" || (s[0] != '{' && s[0] != '[') {
			return data, nil
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v, nil
		}
		return data, nil
	}
}
