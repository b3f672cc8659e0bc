package secrets

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Provider — источник секретов.
type Provider interface {
	// Get возвращает значение секрета name.
	// ok == false — секрет не настроен.
	Get(name string) (value string, ok bool)
}

// EnvProvider читает секреты из переменных окружения.
//
// Имя секрета нормализуется в форму переменной окружения:
// "openai api key" → "OPENAI_API_KEY".
type EnvProvider struct {
	// Prefix добавляется к нормализованному имени (например "NODEFLOW_").
	Prefix string
}

// NewEnvProvider создаёт EnvProvider без префикса.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Get реализует интерфейс Provider.
func (p *EnvProvider) Get(name string) (string, bool) {
	value, ok := os.LookupEnv(p.Prefix + Normalize(name))
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Normalize приводит имя секрета к форме переменной окружения.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ToUpper(name)
}

// LoadDotenv подгружает переменные из .env файлов в окружение процесса.
// Отсутствие файлов не является ошибкой: в production окружение
// конфигурируется снаружи.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

// StaticProvider — секреты из фиксированной map. Для тестов и встраивания.
type StaticProvider map[string]string

// Get реализует интерфейс Provider.
func (p StaticProvider) Get(name string) (string, bool) {
	value, ok := p[Normalize(name)]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// NewStaticProvider создаёт StaticProvider, нормализуя ключи.
func NewStaticProvider(values map[string]string) StaticProvider {
	p := make(StaticProvider, len(values))
	for name, value := range values {
		p[Normalize(name)] = value
	}
	return p
}
