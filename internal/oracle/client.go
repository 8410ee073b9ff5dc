package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datenai/datalab/internal/domain"
)

// Client talks to a generateContent-style text generation API
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates an oracle client. baseURL is the API root, e.g.
// https://generativelanguage.googleapis.com.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// GeneratePlan implements Oracle
func (c *Client) GeneratePlan(ctx context.Context, task domain.TaskDescriptor, schema domain.DatasetSchema) (*Generation, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	params := ""
	if len(task.Parameters) > 0 {
		raw, _ := json.Marshal(task.Parameters)
		params = string(raw)
	}

	prompt, err := renderPrompt("plan", map[string]any{
		"Title":      task.Title,
		"TaskID":     task.ID,
		"Parameters": params,
		"Schema":     string(schemaJSON),
	})
	if err != nil {
		return nil, err
	}

	text, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var gen Generation
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &gen); err != nil {
		return nil, fmt.Errorf("decoding plan response: %w", err)
	}
	gen.Code = StripCodeFences(gen.Code)
	return &gen, nil
}

// Repair implements Oracle
func (c *Client) Repair(ctx context.Context, code, fault string, schema domain.DatasetSchema) (string, error) {
	dtypes, _ := json.Marshal(schema.Dtypes)
	prompt, err := renderPrompt("repair", map[string]any{
		"Code":    code,
		"Fault":   fault,
		"Columns": strings.Join(schema.Columns, ", "),
		"Dtypes":  string(dtypes),
		"Shape":   fmt.Sprint(schema.Shape),
	})
	if err != nil {
		return "", err
	}

	text, err := c.generateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	return StripCodeFences(text), nil
}

// Summarize implements Oracle
func (c *Client) Summarize(ctx context.Context, artifacts []domain.Artifact, task domain.TaskDescriptor) (string, error) {
	var tables, plots, metrics int
	for _, a := range artifacts {
		switch a.Type {
		case domain.ArtifactTable:
			tables++
		case domain.ArtifactPlot:
			plots++
		case domain.ArtifactMetrics:
			metrics += len(a.Items)
		}
	}

	prompt, err := renderPrompt("summarize", map[string]any{
		"Title":         task.Title,
		"ArtifactCount": len(artifacts),
		"TableCount":    tables,
		"PlotCount":     plots,
		"MetricCount":   metrics,
	})
	if err != nil {
		return "", err
	}

	text, err := c.generateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GenerateSuggestions implements Oracle
func (c *Client) GenerateSuggestions(ctx context.Context, schema domain.DatasetSchema, goal string) (*SuggestionSet, error) {
	rows, cols := 0, 0
	if len(schema.Shape) == 2 {
		rows, cols = schema.Shape[0], schema.Shape[1]
	}
	columns := schema.Columns
	if len(columns) > 10 {
		columns = columns[:10]
	}

	prompt, err := renderPrompt("suggest", map[string]any{
		"Rows":    rows,
		"Cols":    cols,
		"Columns": strings.Join(columns, ", "),
		"Goal":    goal,
	})
	if err != nil {
		return nil, err
	}

	text, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var set SuggestionSet
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &set); err != nil {
		return nil, fmt.Errorf("decoding suggestion response: %w", err)
	}
	return &set, nil
}

// generateContent request/response shapes for the REST API
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling oracle: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("decoding oracle response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if gr.Error != nil {
			msg = gr.Error.Message
		}
		return "", fmt.Errorf("oracle returned %d: %s", resp.StatusCode, msg)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("oracle returned no candidates")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// StripCodeFences removes a surrounding markdown code fence, which text
// models add even when asked not to.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop an optional language tag on the fence line
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		if first == "" || !strings.ContainsAny(first, " \t{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
