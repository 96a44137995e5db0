// Package collab talks to the services the editor relies on: drop-menu
// rendering, field creation, completion file generation, mapping save and file
// deletion.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mapping-editor/internal/logger"
)

const maxResponseBody = 4 << 20

var menuCategories = map[string]bool{
	"source":       true,
	"remplacement": true,
	"phonetic":     true,
	"fixed_value":  true,
}

// Client calls the collaborator endpoints under a base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FieldFragments are the two HTML fragments of a newly created field.
type FieldFragments struct {
	RowHTML     string `json:"row_html"`
	DetailsHTML string `json:"details_html"`
}

// GenerateRequest asks for a derived completion file.
type GenerateRequest struct {
	EncodedFilepath string          `json:"encoded_filepath"`
	OriginalField   string          `json:"original_field"`
	Filename        string          `json:"filename"`
	Phonetic        map[string]bool `json:"phonetic,omitempty"`
}

// SaveRequest is the whole mapping file sent for persistence. A nil FileID
// saves as a new file.
type SaveRequest struct {
	MappingName         string                    `json:"mapping_name"`
	FileID              *string                   `json:"file_id"`
	EncodedDataFilepath string                    `json:"encoded_data_filepath"`
	Mapping             map[string]map[string]any `json:"mapping"`
}

// SaveResult is the normalized outcome of a save.
type SaveResult struct {
	Success bool   `json:"success"`
	NewFile string `json:"new_file,omitempty"`
	Error   string `json:"error,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// FileRef identifies a file to delete.
type FileRef struct {
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// FetchMenu returns the add-field drop menu HTML for a category. The
// fixed_value menu does not depend on the data file.
func (c *Client) FetchMenu(ctx context.Context, encodedFilepath, category string) (string, error) {
	if !menuCategories[category] {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	path := "/file/mapping/undertitle/fixed_value"
	if category != "fixed_value" {
		if encodedFilepath == "" {
			return "", &Error{Op: "fetch menu", Kind: KindApplication, Message: "no data file selected"}
		}
		path = "/file/mapping/undertitle/" + category + "/" + url.PathEscape(encodedFilepath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", &Error{Op: "fetch menu", Kind: KindTransport, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(&Error{Op: "fetch menu", Kind: KindTransport, Message: err.Error(), Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", c.fail(&Error{Op: "fetch menu", Kind: KindTransport, Message: err.Error(), Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.fail(&Error{Op: "fetch menu", Kind: KindStatus, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
	}
	return string(body), nil
}

// CreateField asks the service to render a new field from its category payload.
func (c *Client) CreateField(ctx context.Context, payload map[string]any) (*FieldFragments, error) {
	var out FieldFragments
	if err := c.postJSON(ctx, "create field", "/mapping/create/mapping-field", payload, &out); err != nil {
		return nil, err
	}
	if out.RowHTML == "" || out.DetailsHTML == "" {
		return nil, c.fail(&Error{Op: "create field", Kind: KindDecode, Message: "response is missing a fragment"})
	}
	return &out, nil
}

// Generate creates a remplacement or phonetic completion file and returns its name.
func (c *Client) Generate(ctx context.Context, category string, req GenerateRequest) (string, error) {
	if category != "remplacement" && category != "phonetic" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	var out struct {
		Filename string `json:"filename"`
	}
	if err := c.postJSON(ctx, "generate "+category, "/file/mapping/"+category+"/generate/", req, &out); err != nil {
		return "", err
	}
	if out.Filename == "" {
		return "", c.fail(&Error{Op: "generate " + category, Kind: KindDecode, Message: "response has no filename"})
	}
	return out.Filename, nil
}

// Save persists the mapping. Failures never escape as errors; they come back
// as an unsuccessful result.
func (c *Client) Save(ctx context.Context, req SaveRequest) SaveResult {
	var out struct {
		NewFile any `json:"new_file"`
	}
	if err := c.postJSON(ctx, "save mapping", "/file/mapping/save/", req, &out); err != nil {
		res := SaveResult{Success: false, Error: err.Error()}
		var ce *Error
		if errors.As(err, &ce) {
			res.Error = ce.Message
			res.Status = ce.Status
		}
		return res
	}
	res := SaveResult{Success: true}
	switch v := out.NewFile.(type) {
	case string:
		res.NewFile = v
	case float64:
		res.NewFile = fmt.Sprintf("%.0f", v)
	}
	return res
}

// DeleteFile removes a stored file by id or filename.
func (c *Client) DeleteFile(ctx context.Context, ref FileRef) error {
	if ref.FileID == "" && ref.Filename == "" {
		return ErrMissingFileRef
	}
	var out map[string]any
	return c.postJSON(ctx, "delete file", "/file/delete/", ref, &out)
}

// DownloadURL is the link serving a generated completion file.
func (c *Client) DownloadURL(filename string) string {
	return c.baseURL + "/file/remplacement/download/" + url.PathEscape(filename)
}

// postJSON sends body and decodes the response into out, mapping every
// failure onto an *Error.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Op: op, Kind: KindDecode, Message: fmt.Sprintf("encode request: %v", err), Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(&Error{Op: op, Kind: KindTransport, Message: err.Error(), Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return c.fail(&Error{Op: op, Kind: KindTransport, Message: err.Error(), Err: err})
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	var envelope struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if !ok {
			return c.fail(&Error{Op: op, Kind: KindStatus, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
		}
		return c.fail(&Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Message: "response is not valid JSON", Err: err})
	}
	msg := errorMessage(envelope.Error)
	if !ok {
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return c.fail(&Error{Op: op, Kind: KindStatus, Status: resp.StatusCode, Message: msg})
	}
	if msg != "" {
		return c.fail(&Error{Op: op, Kind: KindApplication, Status: resp.StatusCode, Message: msg})
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(&Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Message: "unexpected response shape", Err: err})
	}
	return nil
}

func errorMessage(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case bool:
		if e {
			return "error"
		}
		return ""
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func (c *Client) fail(e *Error) *Error {
	logger.Warn("collaborator call failed",
		zap.String("op", e.Op),
		zap.String("kind", string(e.Kind)),
		zap.Int("status", e.Status),
		zap.String("error", e.Message))
	return e
}
