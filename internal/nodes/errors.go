package nodes

import "errors"

// Ошибки пакета nodes.
var (
	// ErrMissingSecret — секрет не настроен у провайдера.
	ErrMissingSecret = errors.New("secret is not configured")

	// ErrMissingURL — у http-узла не задан URL.
	ErrMissingURL = errors.New("url is required")

	// ErrHTTPRequest — ошибка выполнения HTTP-запроса.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrTemplateParse — ошибка разбора шаблона.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")
)
