package secrets

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"openai api key", "OPENAI_API_KEY"},
		{"MY-TOKEN", "MY_TOKEN"},
		{"  padded  ", "PADDED"},
		{"ALREADY_OK", "ALREADY_OK"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("NODEFLOW_OPENAI_API_KEY", "sk-test")

	p := &EnvProvider{Prefix: "NODEFLOW_"}

	value, ok := p.Get("openai api key")
	if !ok || value != "sk-test" {
		t.Errorf("expected sk-test, got %q (ok=%v)", value, ok)
	}

	// Отсутствие секрета — ok == false, не ошибка
	if _, ok := p.Get("missing"); ok {
		t.Error("missing secret should report ok=false")
	}
}

func TestEnvProvider_EmptyValueIsMissing(t *testing.T) {
	t.Setenv("EMPTY_SECRET", "")

	p := NewEnvProvider()
	if _, ok := p.Get("empty secret"); ok {
		t.Error("empty value should count as missing")
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(map[string]string{"my token": "abc"})

	if value, ok := p.Get("MY TOKEN"); !ok || value != "abc" {
		t.Errorf("expected abc, got %q (ok=%v)", value, ok)
	}
	if _, ok := p.Get("other"); ok {
		t.Error("unknown secret should report ok=false")
	}
}
