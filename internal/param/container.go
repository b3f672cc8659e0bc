package param

import "fmt"

// NewList создаёт контейнерный параметр-список.
//
// Контейнер владеет упорядоченным набором дочерних параметров и всегда
// считается "присутствующим" (HasValue() == true), даже когда детей нет.
func NewList(cfg Config) (*Parameter, error) {
	if cfg.Type == "" {
		cfg.Type = TypeList
	}
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	p.kind = kindList
	return p, nil
}

// NewDict создаёт контейнерный параметр-словарь.
// Ключом служит имя дочернего параметра; порядок вставки сохраняется.
func NewDict(cfg Config) (*Parameter, error) {
	if cfg.Type == "" {
		cfg.Type = TypeDict
	}
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	p.kind = kindDict
	return p, nil
}

// IsContainer возвращает true для list/dict параметров.
func (p *Parameter) IsContainer() bool {
	return p.kind != kindScalar
}

// AddChild добавляет дочерний параметр в контейнер.
// В словаре имена детей уникальны.
func (p *Parameter) AddChild(child *Parameter) error {
	if p.kind == kindScalar {
		return fmt.Errorf("%w: %s", ErrNotContainer, p.name)
	}
	if p.kind == kindDict {
		for _, existing := range p.children {
			if existing.name == child.name {
				return fmt.Errorf("%w: %s.%s", ErrDuplicateChild, p.name, child.name)
			}
		}
	}
	p.children = append(p.children, child)
	return nil
}

// Child возвращает дочерний параметр по имени.
func (p *Parameter) Child(name string) (*Parameter, bool) {
	for _, child := range p.children {
		if child.name == name {
			return child, true
		}
	}
	return nil, false
}

// Children возвращает неуплощённый срез детей в порядке вставки.
// Falsy-дети не отбрасываются — это "сырое" чтение контейнера.
func (p *Parameter) Children() []*Parameter {
	out := make([]*Parameter, len(p.children))
	copy(out, p.children)
	return out
}

// Flatten уплощает контейнер в список эффективных значений детей.
// Falsy-дети молча отбрасываются; для сырого чтения см. Children.
func (p *Parameter) Flatten() []any {
	values := make([]any, 0, len(p.children))
	for _, child := range p.children {
		v := child.Value()
		if IsFalsy(v) {
			continue
		}
		values = append(values, v)
	}
	return values
}

// FlattenMap возвращает значения словаря по именам детей.
// Falsy-значения отбрасываются по тем же правилам, что и в Flatten.
func (p *Parameter) FlattenMap() map[string]any {
	values := make(map[string]any, len(p.children))
	for _, child := range p.children {
		v := child.Value()
		if IsFalsy(v) {
			continue
		}
		values[child.name] = v
	}
	return values
}
