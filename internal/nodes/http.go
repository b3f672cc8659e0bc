package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Nodeflow/internal/graph"
	"github.com/shaiso/Nodeflow/internal/library"
	"github.com/shaiso/Nodeflow/internal/param"
	"github.com/shaiso/Nodeflow/internal/task"
)

// HTTPDefinition — HTTP-запрос как фоновая задача.
//
// Запрос стартует на Submit и выполняется в фоне; Poll отражает
// готовность, Retrieve отдаёт результат:
//
//	{"status_code": int, "headers": map[string]string, "body": any}
//
// HTTP >= 400 — ошибка задачи (StateFailed).
func HTTPDefinition(env Env) *library.Definition {
	return &library.Definition{
		Type: "http",
		Params: []param.Config{
			{Name: "method", Type: param.TypeString, Modes: param.ModeProperty, Default: "GET"},
			{Name: "url", Type: param.TypeString, Modes: param.ModeInput | param.ModeProperty},
			{Name: "body", Modes: param.ModeInput | param.ModeProperty},
			{Name: "out", Type: param.TypeDict, Modes: param.ModeOutput},
		},
		Controls: []library.ControlSlot{
			{Name: "exec", Mode: param.ModeInput},
			{Name: "next", Mode: param.ModeOutput},
		},
		NewLogic: func() graph.Logic {
			return graph.LogicFunc(func(_ context.Context, n *graph.Node) (*graph.Deferred, error) {
				url := getString(n.ValueOf("url"), "")
				if url == "" {
					return nil, ErrMissingURL
				}

				job := &httpJob{
					client: env.HTTPClient,
					method: getString(n.ValueOf("method"), "GET"),
					url:    url,
					body:   n.ValueOf("body"),
				}
				return &graph.Deferred{Job: job, Target: "out"}, nil
			})
		},
	}
}

// httpJob выполняет запрос в фоне после Submit.
type httpJob struct {
	client *http.Client
	method string
	url    string
	body   any

	mu      sync.Mutex
	done    bool
	outputs map[string]any
	err     error
}

// Submit реализует интерфейс task.Job: запускает запрос в фоне.
func (j *httpJob) Submit(ctx context.Context) (string, error) {
	var bodyReader io.Reader
	if j.body != nil {
		bodyBytes, err := json.Marshal(j.body)
		if err != nil {
			return "", fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, j.method, j.url, bodyReader)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	go j.perform(req)

	return uuid.New().String(), nil
}

// perform выполняет запрос и сохраняет исход.
func (j *httpJob) perform(req *http.Request) {
	resp, err := j.client.Do(req)
	if err != nil {
		j.finish(nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err))
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		j.finish(nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err))
		return
	}

	outputs := buildHTTPOutputs(resp, respBody)

	if resp.StatusCode >= 400 {
		j.finish(outputs, fmt.Errorf("%w: HTTP %d", ErrHTTPRequest, resp.StatusCode))
		return
	}
	j.finish(outputs, nil)
}

func (j *httpJob) finish(outputs map[string]any, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done = true
	j.outputs = outputs
	j.err = err
}

// Poll реализует интерфейс task.Job.
func (j *httpJob) Poll(_ context.Context, _ string) (task.Status, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.done {
		return task.Status{State: task.StatePending}, nil
	}
	if j.err != nil {
		return task.Status{State: task.StateFailed, Reason: j.err.Error()}, nil
	}
	return task.Status{State: task.StateSucceeded, Handle: "response"}, nil
}

// Retrieve реализует интерфейс task.Job.
func (j *httpJob) Retrieve(_ context.Context, _ string) (any, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outputs, nil
}

// buildHTTPOutputs формирует результат из HTTP-ответа.
// Body разбирается как JSON, иначе остаётся строкой.
func buildHTTPOutputs(resp *http.Response, body []byte) map[string]any {
	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	var parsedBody any
	if err := json.Unmarshal(body, &parsedBody); err != nil {
		parsedBody = string(body)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parsedBody,
	}
}
