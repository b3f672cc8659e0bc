package nodes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Nodeflow/internal/cache"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/secrets"
)

const defaultHTTPTimeout = 30 * time.Second

// Env — окружение логики встроенных узлов.
type Env struct {
	// Secrets — провайдер секретов (default: EnvProvider).
	Secrets secrets.Provider

	// Cache — разделяемый кэш тяжёлых ресурсов (default: cache.New).
	Cache *cache.Store

	// HTTPClient — клиент для http-узлов (default: таймаут 30s).
	HTTPClient *http.Client

	// Logger
	Logger *slog.Logger
}

// withDefaults возвращает Env с заполненными дефолтами.
func (e Env) withDefaults() Env {
	if e.Secrets == nil {
		e.Secrets = secrets.NewEnvProvider()
	}
	if e.Cache == nil {
		e.Cache = cache.New(cache.Config{})
	}
	if e.HTTPClient == nil {
		e.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// RegisterBuiltins регистрирует все встроенные типы узлов.
func RegisterBuiltins(reg *library.Registry, env Env) error {
	env = env.withDefaults()

	defs := []*library.Definition{
		ValueDefinition(),
		TemplateDefinition(env),
		BranchDefinition(),
		RerouteDefinition(),
		DelayDefinition(),
		HTTPDefinition(env),
		SecretDefinition(env),
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// getString достаёт строку из значения параметра.
func getString(value any, fallback string) string {
	s, ok := value.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

// getFloat достаёт число из значения параметра.
func getFloat(value any, fallback float64) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
