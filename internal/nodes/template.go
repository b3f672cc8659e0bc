package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
)

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// split — разбивает строку на слайс
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	"contains": strings.Contains,
	"lower":    strings.ToLower,
	"upper":    strings.ToUpper,
	"trim":     strings.TrimSpace,
	"replace":  strings.ReplaceAll,
}

// templateContext — данные для рендеринга.
//
// В шаблоне доступны как {{ .Values.key }}.
type templateContext struct {
	Values map[string]any
}

// TemplateDefinition — рендеринг text/template.
//
// Вход vars — словарь значений; шаблон из свойства template.
// Разобранные шаблоны кэшируются в разделяемом кэше окружения.
func TemplateDefinition(env Env) *library.Definition {
	return &library.Definition{
		Type: "template",
		Params: []param.Config{
			{Name: "template", Type: param.TypeString, Modes: param.ModeProperty | param.ModeInput},
			{Name: "vars", Type: param.TypeDict, Modes: param.ModeInput | param.ModeProperty},
			{Name: "out", Type: param.TypeString, Modes: param.ModeOutput},
		},
		Controls: []library.ControlSlot{
			{Name: "exec", Mode: param.ModeInput},
			{Name: "next", Mode: param.ModeOutput},
		},
		NewLogic: func() graph.Logic {
			return graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
				source := getString(n.ValueOf("template"), "")

				values, _ := n.ValueOf("vars").(map[string]any)
				rendered, err := renderTemplate(env, source, values)
				if err != nil {
					return nil, err
				}
				return nil, n.SetOutput("out", rendered)
			})
		},
	}
}

// renderTemplate рендерит шаблон source по значениям values.
// Строка без шаблонных выражений возвращается как есть.
func renderTemplate(env Env, source string, values map[string]any) (string, error) {
	if !strings.Contains(source, "{{") {
		return source, nil
	}

	parsed, err := env.Cache.GetOrCompute("template:"+source, func() (any, error) {
		t, err := template.New("").Funcs(templateFuncs).Parse(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
		}
		return t, nil
	})
	if err != nil {
		return "", err
	}

	if values == nil {
		values = make(map[string]any)
	}

	var buf bytes.Buffer
	if err := parsed.(*template.Template).Execute(&buf, templateContext{Values: values}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}
