package param

// Теги типов параметров.
//
// Тег — строковая метка движкового типа значения. Специальный тег TypeAny
// совместим с любым тегом данных; TypeControl зарезервирован для
// control-слотов и совместим только сам с собой.
const (
	TypeString  = "str"
	TypeInt     = "int"
	TypeFloat   = "float"
	TypeBool    = "bool"
	TypeList    = "list"
	TypeDict    = "dict"
	TypeAny     = "any"
	TypeControl = "control"
)

// Compatible проверяет совместимость тега источника и тега приёмника.
//
// Правила:
//   - control соединяется только с control
//   - any совместим с любым тегом данных (в обе стороны)
//   - иначе теги должны совпадать
func Compatible(source, target string) bool {
	if source == TypeControl || target == TypeControl {
		return source == TypeControl && target == TypeControl
	}
	if source == TypeAny || target == TypeAny {
		return true
	}
	return source == target
}

// IsFalsy возвращает true для "пустых" значений.
//
// Используется контейнерами при уплощении: falsy-дети отбрасываются.
func IsFalsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
