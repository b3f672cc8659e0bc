package graph

import (
	"fmt"
	"sort"

	"github.com/shaiso/Nodeflow/internal/param"
)

// TypeState — состояние негоциации типов узла.
type TypeState string

const (
	// TypeOpen — соединений нет; связанные параметры принимают любой тип.
	TypeOpen TypeState = "OPEN"

	// TypeConstrained — множество возможных типов сужено первым соединением;
	// последующие соединения обязаны пересекаться с ним.
	TypeConstrained TypeState = "CONSTRAINED"

	// TypeLocked — зафиксирован ровно один тип; все связанные параметры
	// принудительно получают его.
	TypeLocked TypeState = "LOCKED"
)

// Negotiator — негоциатор типов для узла, динамически маршрутизирующего
// значения между несколькими входами/выходами (например, сквозной reroute).
//
// Негоциатор хранит вклад каждого соединения и выводит состояние
// пересечением вкладов. Пересечение коммутативно, поэтому пересчёт
// после отключения идемпотентен и не зависит от порядка удаления.
type Negotiator struct {
	// linked — имена связанных параметров узла, которым негоциатор
	// переписывает тег типа при фиксации и регрессии.
	linked []string

	// offers — ключ соединения → вклад в множество типов.
	// nil-вклад означает "any" и не сужает множество.
	offers map[string][]string
}

// NewNegotiator создаёт негоциатор для параметров linked.
func NewNegotiator(linked ...string) *Negotiator {
	return &Negotiator{
		linked: linked,
		offers: make(map[string][]string),
	}
}

// Offer регистрирует вклад соединения key с набором типов types.
//
// Тег "any" (и пустой набор) не сужает множество. Пустое пересечение
// с текущим множеством отклоняет вклад с ErrTypeConflict, не меняя
// состояние негоциатора.
func (ng *Negotiator) Offer(key string, types ...string) error {
	contribution := normalizeOffer(types)

	if contribution != nil {
		current := ng.possibilities()
		if current != nil && len(intersect(current, contribution)) == 0 {
			return fmt.Errorf("%w: %v against %v", ErrTypeConflict, contribution, current)
		}
	}

	ng.offers[key] = contribution
	return nil
}

// Withdraw удаляет вклад соединения key и пересчитывает состояние
// из оставшихся вкладов. Может регрессировать Locked → Constrained → Open.
func (ng *Negotiator) Withdraw(key string) {
	delete(ng.offers, key)
}

// State возвращает текущее состояние негоциации.
func (ng *Negotiator) State() TypeState {
	poss := ng.possibilities()
	switch {
	case poss == nil:
		return TypeOpen
	case len(poss) == 1:
		return TypeLocked
	default:
		return TypeConstrained
	}
}

// Possibilities возвращает отсортированное множество возможных типов.
// nil означает отсутствие ограничений (состояние Open).
func (ng *Negotiator) Possibilities() []string {
	poss := ng.possibilities()
	if poss == nil {
		return nil
	}
	out := make([]string, len(poss))
	copy(out, poss)
	sort.Strings(out)
	return out
}

// LockedType возвращает зафиксированный тип, если состояние Locked.
func (ng *Negotiator) LockedType() (string, bool) {
	poss := ng.possibilities()
	if len(poss) == 1 {
		return poss[0], true
	}
	return "", false
}

// Apply переписывает теги связанных параметров узла согласно состоянию:
// Locked — зафиксированный тип, иначе — any.
func (ng *Negotiator) Apply(n *Node) {
	tag := param.TypeAny
	if locked, ok := ng.LockedType(); ok {
		tag = locked
	}

	for _, name := range ng.linked {
		if p, ok := n.Parameter(name); ok {
			p.RetagType(tag)
		}
	}
}

// possibilities сворачивает вклады пересечением.
// Порядок обхода map не важен: пересечение коммутативно.
func (ng *Negotiator) possibilities() []string {
	var universe []string
	for _, contribution := range ng.offers {
		if contribution == nil {
			continue
		}
		if universe == nil {
			universe = append([]string(nil), contribution...)
			sort.Strings(universe)
			continue
		}
		universe = intersect(universe, contribution)
	}
	return universe
}

// normalizeOffer приводит набор типов к вкладу:
// пустой набор либо наличие "any" — без ограничений (nil).
func normalizeOffer(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	for _, t := range types {
		if t == param.TypeAny {
			return nil
		}
	}
	out := append([]string(nil), types...)
	sort.Strings(out)
	return out
}

// intersect возвращает пересечение двух множеств типов.
func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}

	var out []string
	for _, t := range a {
		if inB[t] {
			out = append(out, t)
		}
	}
	return out
}
