package param

import (
	"fmt"
	"strings"
)

// Mode — режим подключения параметра (битовая маска).
type Mode uint8

// Режимы подключения.
const (
	// ModeInput — параметр принимает входящее data-соединение.
	ModeInput Mode = 1 << iota

	// ModeProperty — параметр редактируется как свойство узла.
	ModeProperty

	// ModeOutput — параметр может быть источником data-соединения.
	ModeOutput
)

// Has проверяет наличие режима в маске.
func (m Mode) Has(mode Mode) bool {
	return m&mode != 0
}

// Converter преобразует значение перед валидацией.
// Возвращает преобразованное значение или ошибку.
type Converter func(value any) (any, error)

// Validator проверяет значение. Ошибка отменяет установку значения.
type Validator func(value any) error

// BeforeSetHook вызывается до конвертеров и валидаторов.
// Может преобразовать значение или отклонить его ошибкой.
type BeforeSetHook func(p *Parameter, value any) (any, error)

// AfterSetHook вызывается после успешной установки значения.
// Только побочные эффекты (уведомления UI и т.п.), значение не меняет.
type AfterSetHook func(p *Parameter, value any)

// kind — разновидность параметра.
type kind uint8

const (
	kindScalar kind = iota
	kindList
	kindDict
)

// Parameter — типизированный именованный слот на узле.
//
// Parameter владеет значением, ограничениями типа и правилами подключения.
// Мутируется только через SetValue (конвейер хуков) либо Clear.
type Parameter struct {
	name     string
	typeTag  string
	modes    Mode
	def      any
	value    any
	hasValue bool
	readOnly bool

	// Конвейер установки значения: before → converters → validators → after.
	before     []BeforeSetHook
	after      []AfterSetHook
	converters []Converter
	validators []Validator

	// Контейнерная часть (kindList/kindDict).
	kind     kind
	children []*Parameter
}

// Config — конфигурация Parameter.
type Config struct {
	// Name — имя параметра. Уникально в пределах узла, без пробелов.
	Name string

	// Type — тег типа (см. types.go). Default: TypeAny.
	Type string

	// Modes — разрешённые режимы подключения. Обязательно непустые.
	Modes Mode

	// Default — значение по умолчанию, возвращаемое Value() при отсутствии.
	Default any

	// ReadOnly — запрещает прямую установку значения через SetValue.
	ReadOnly bool

	// Converters — упорядоченные преобразователи значения.
	Converters []Converter

	// Validators — упорядоченные проверки значения. Выполняются после конвертеров.
	Validators []Validator

	// BeforeSet — хуки, выполняемые до конвейера преобразований.
	BeforeSet []BeforeSetHook

	// AfterSet — хуки, выполняемые после успешной установки.
	AfterSet []AfterSetHook
}

// New создаёт новый Parameter.
func New(cfg Config) (*Parameter, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyName
	}
	if strings.ContainsAny(cfg.Name, " \t\n\r") {
		return nil, fmt.Errorf("%w: %q", ErrNameWhitespace, cfg.Name)
	}
	if cfg.Modes == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoModes, cfg.Name)
	}

	typeTag := cfg.Type
	if typeTag == "" {
		typeTag = TypeAny
	}

	return &Parameter{
		name:       cfg.Name,
		typeTag:    typeTag,
		modes:      cfg.Modes,
		def:        cfg.Default,
		readOnly:   cfg.ReadOnly,
		before:     cfg.BeforeSet,
		after:      cfg.AfterSet,
		converters: cfg.Converters,
		validators: cfg.Validators,
	}, nil
}

// MustNew создаёт Parameter и паникует при ошибке конфигурации.
// Для статически известных описаний в библиотеках узлов.
func MustNew(cfg Config) *Parameter {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// NewControl создаёт control-слот: параметр с типом TypeControl.
// mode должен быть ModeInput либо ModeOutput.
func NewControl(name string, mode Mode) (*Parameter, error) {
	return New(Config{Name: name, Type: TypeControl, Modes: mode})
}

// Name возвращает имя параметра.
func (p *Parameter) Name() string { return p.name }

// Type возвращает тег типа параметра.
func (p *Parameter) Type() string { return p.typeTag }

// Modes возвращает маску режимов подключения.
func (p *Parameter) Modes() Mode { return p.modes }

// Settable возвращает true, если значение можно устанавливать напрямую.
func (p *Parameter) Settable() bool { return !p.readOnly }

// IsControl возвращает true для control-слота.
func (p *Parameter) IsControl() bool { return p.typeTag == TypeControl }

// AcceptsInput возвращает true, если параметр может быть целью data-соединения.
func (p *Parameter) AcceptsInput() bool { return p.modes.Has(ModeInput) }

// ProducesOutput возвращает true, если параметр может быть источником соединения.
func (p *Parameter) ProducesOutput() bool { return p.modes.Has(ModeOutput) }

// HasValue возвращает true, если значение установлено.
// Контейнер всегда "присутствует", даже с пустым набором детей, —
// это исключает неоднозначность с обычными falsy-значениями.
func (p *Parameter) HasValue() bool {
	if p.kind != kindScalar {
		return true
	}
	return p.hasValue
}

// Value возвращает установленное значение либо значение по умолчанию.
func (p *Parameter) Value() any {
	if p.kind != kindScalar {
		return p.Flatten()
	}
	if p.hasValue {
		return p.value
	}
	return p.def
}

// Default возвращает значение по умолчанию.
func (p *Parameter) Default() any { return p.def }

// SetValue устанавливает значение через полный конвейер:
// before-хуки → конвертеры → валидаторы → запись → after-хуки.
//
// Любая ошибка до записи отменяет установку без изменения состояния
// (атомарный set) и возвращается как *ValidationError.
func (p *Parameter) SetValue(value any) error {
	if p.readOnly {
		return NewValidationError(p.name, "parameter is read-only", ErrNotSettable)
	}
	return p.set(value)
}

// Pull устанавливает значение, протянутое движком из upstream-параметра.
// Конвейер хуков тот же, что и у SetValue, но флаг settable игнорируется:
// он ограничивает прямое редактирование, а не протягивание по соединению.
func (p *Parameter) Pull(value any) error {
	return p.set(value)
}

// set — общий конвейер установки значения.
func (p *Parameter) set(value any) error {
	current := value

	for _, hook := range p.before {
		transformed, err := hook(p, current)
		if err != nil {
			return NewValidationError(p.name, err.Error(), ErrValueRejected)
		}
		current = transformed
	}

	for _, convert := range p.converters {
		converted, err := convert(current)
		if err != nil {
			return NewValidationError(p.name, "convert: "+err.Error(), err)
		}
		current = converted
	}

	for _, validate := range p.validators {
		if err := validate(current); err != nil {
			return NewValidationError(p.name, "validate: "+err.Error(), err)
		}
	}

	p.value = current
	p.hasValue = true

	for _, hook := range p.after {
		hook(p, current)
	}

	return nil
}

// Clear сбрасывает значение к отсутствующему (Value() вернёт default).
// Хуки не вызываются: это служебная операция движка при откате узла.
func (p *Parameter) Clear() {
	p.value = nil
	p.hasValue = false
}

// RetagType заменяет тег типа параметра.
// Используется негоциатором типов при фиксации (lock) типа узла.
func (p *Parameter) RetagType(typeTag string) {
	p.typeTag = typeTag
}
