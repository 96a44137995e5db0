package editor

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// filterCacheSize bounds the compiled programs kept per editor.
const filterCacheSize = 64

func newFilterCache() *lru.Cache[string, *vm.Program] {
	c, err := lru.New[string, *vm.Program](filterCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// Filter returns the fields for which the boolean expression query holds,
// e.g. `category == "phonetic" && filename != ""`. An empty query matches
// every field. The most recently used compiled programs are cached per editor.
func (e *Editor) Filter(query string) ([]FieldView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []FieldView
	if query == "" {
		for _, f := range e.registry.Fields() {
			out = append(out, viewOf(f))
		}
		return out, nil
	}

	program, err := e.compileFilter(query)
	if err != nil {
		return nil, err
	}
	for _, f := range e.registry.Fields() {
		v := viewOf(f)
		result, err := expr.Run(program, filterEnv(v))
		if err != nil {
			return nil, fmt.Errorf("%w: evaluate %q on %q: %v", ErrInvalidFilter, query, v.Key, err)
		}
		if ok, _ := result.(bool); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (e *Editor) compileFilter(query string) (*vm.Program, error) {
	if p, ok := e.filters.Get(query); ok {
		return p, nil
	}
	program, err := expr.Compile(query, expr.AsBool(), expr.Env(filterEnv(FieldView{})))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	e.filters.Add(query, program)
	return program, nil
}

func filterEnv(v FieldView) map[string]any {
	values := v.Values
	if values == nil {
		values = map[string]string{}
	}
	return map[string]any{
		"key":         v.Key,
		"category":    v.Category,
		"description": v.Description,
		"name":        values["name"],
		"values":      values,
		"filename":    v.Filename,
		"blocked":     v.Blocked,
		"modify":      v.Modify,
		"visible":     v.Visible,
	}
}
