package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader. Keys match flag names with either
// dashes or underscores, and dotted flag names may be nested maps. A flag
// whose environment variable is set is left to kong so env beats the file.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}

	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid yaml config: %w", err)
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		for _, env := range flag.Envs {
			if _, ok := os.LookupEnv(env); ok {
				return nil, nil
			}
		}

		raw, ok := lookup(values, flag.Name)
		if !ok {
			return nil, nil
		}

		return scalar(raw), nil
	}

	return f, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if raw, ok := values[key]; ok {
			return raw, true
		}
	}

	var raw any = values
	for _, part := range strings.Split(name, ".") {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		if raw, ok = m[part]; !ok {
			if raw, ok = m[strings.ReplaceAll(part, "-", "_")]; !ok {
				return nil, false
			}
		}
	}

	return raw, true
}

// scalar renders YAML scalars as strings so kong's mappers parse them the
// same way as command line values.
func scalar(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return strings.Join(out, ",")
	case map[string]any:
		return v
	default:
		return fmt.Sprint(v)
	}
}
