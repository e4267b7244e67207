// Package httprequest provides the HTTP request node for workflow graph
// execution.
package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nodeflow/nodeflow/pkg/models"
	"github.com/nodeflow/nodeflow/pkg/template"
)

// defaultTimeout bounds how long a single request may block its worker.
const defaultTimeout = 30 * time.Second

// methodsWithBody are the methods that send the resolved data parameter as a
// JSON body.
var methodsWithBody = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Handler executes http_request nodes. Network, request-building and
// response-parsing failures are contained: they surface as an error payload
// with status_code 0, never as a run failure.
type Handler struct {
	client *http.Client
}

// NewHandler creates an HTTP request node handler with the default timeout.
func NewHandler() *Handler {
	return &Handler{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Type returns the node type this handler executes.
func (h *Handler) Type() models.NodeType {
	return models.NodeTypeHTTPRequest
}

// Execute resolves the node's url, headers and data parameters against the
// run context and issues the request.
func (h *Handler) Execute(ctx context.Context, node *models.Node, runCtx *models.RunContext) (map[string]any, error) {
	scope := runCtx.TemplateScope()

	method, _ := node.Parameters["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)

	rawURL, _ := node.Parameters["url"].(string)
	url := template.ResolveString(rawURL, scope)

	headers := resolveHeaders(node.Parameters["headers"], scope)
	data := template.Resolve(node.Parameters["data"], scope)

	var body io.Reader

	if methodsWithBody[method] && data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"data":        parseBody(resp.Header.Get("Content-Type"), respBody),
		"headers":     flattenHeaders(resp.Header),
	}, nil
}

// parseBody decodes the body as JSON when the response declares a JSON
// content type, falling back to the raw text either way.
func parseBody(contentType string, body []byte) any {
	if strings.HasPrefix(contentType, "application/json") {
		var decoded any

		if err := json.Unmarshal(body, &decoded); err == nil {
			return decoded
		}
	}

	return string(body)
}

func resolveHeaders(raw any, scope map[string]any) map[string]string {
	headers := make(map[string]string)

	rawHeaders, ok := raw.(map[string]any)
	if !ok {
		return headers
	}

	for key, value := range rawHeaders {
		if strValue, ok := value.(string); ok {
			headers[key] = template.ResolveString(strValue, scope)
		}
	}

	return headers
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}

func errorResult(message string) map[string]any {
	return map[string]any{
		"error":       message,
		"status_code": 0,
	}
}
