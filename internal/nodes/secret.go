package nodes

import (
	"context"
	"fmt"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
)

// SecretDefinition — значение из провайдера секретов.
//
// Отсутствие секрета обнаруживается до запуска: ValidateBeforeRun
// блокирует run, не доводя до ошибки в середине выполнения.
func SecretDefinition(env Env) *library.Definition {
	return &library.Definition{
		Type: "secret",
		Params: []param.Config{
			{Name: "name", Type: param.TypeString, Modes: param.ModeProperty},
			{Name: "out", Type: param.TypeString, Modes: param.ModeOutput},
		},
		NewLogic: func() graph.Logic { return &secretLogic{env: env} },
	}
}

type secretLogic struct {
	env Env
}

// Process реализует интерфейс graph.Logic.
func (l *secretLogic) Process(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
	name := getString(n.ValueOf("name"), "")
	value, ok := l.env.Secrets.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSecret, name)
	}
	return nil, n.SetOutput("out", value)
}

// ValidateBeforeRun реализует интерфейс graph.Validator.
func (l *secretLogic) ValidateBeforeRun(n *graph.Node) []error {
	name := getString(n.ValueOf("name"), "")
	if name == "" {
		return []error{fmt.Errorf("%w: secret name is empty", ErrMissingSecret)}
	}
	if _, ok := l.env.Secrets.Get(name); !ok {
		return []error{fmt.Errorf("%w: %s", ErrMissingSecret, name)}
	}
	return nil
}
