// Package parser extracts typed artifacts from captured script output.
// Generated scripts announce their results with line markers on stdout:
//
//	TABLE_START:<name> ... JSON records ... TABLE_END
//	PLOT_BASE64:<payload>
//	METRIC:<name>:<value>
//
// The scan is a single linear pass with an explicit idle/in-table state.
// Malformed or unterminated table blocks are dropped silently; a broken
// fragment must never abort the whole batch.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/datenai/datalab/internal/domain"
)

const (
	tableStartMarker = "TABLE_START:"
	tableEndMarker   = "TABLE_END"
	plotMarker       = "PLOT_BASE64:"
	metricMarker     = "METRIC:"
)

// maxLineBytes bounds a single scanned line. Base64 plot payloads arrive as
// one line and routinely exceed bufio's 64K default.
const maxLineBytes = 32 * 1024 * 1024

type scanState int

const (
	stateIdle scanState = iota
	stateInTable
)

// Parse scans captured output and returns the artifact batch: tables first,
// then plots, then metrics, each group in order of first appearance.
func Parse(output string) []domain.Artifact {
	var (
		tables  []domain.Artifact
		plots   []domain.Artifact
		metrics []domain.MetricItem
	)

	state := stateIdle
	var tableName string
	var tableBody strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if state == stateInTable {
			if strings.HasPrefix(trimmed, tableEndMarker) {
				if t, ok := parseTable(tableName, tableBody.String()); ok {
					tables = append(tables, t)
				}
				state = stateIdle
				continue
			}
			// Table bodies are captured verbatim
			tableBody.WriteString(line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, tableStartMarker):
			tableName = strings.TrimPrefix(trimmed, tableStartMarker)
			tableBody.Reset()
			state = stateInTable

		case strings.HasPrefix(trimmed, plotMarker):
			plots = append(plots, domain.Artifact{
				Type:   domain.ArtifactPlot,
				Name:   fmt.Sprintf("plot_%d", len(plots)+1),
				Format: domain.PlotFormatPNGBase64,
				Image:  strings.TrimPrefix(trimmed, plotMarker),
			})

		case strings.HasPrefix(trimmed, metricMarker):
			if item, ok := parseMetric(strings.TrimPrefix(trimmed, metricMarker)); ok {
				metrics = append(metrics, item)
			}
		}
	}
	// An unterminated table block (scanner exhausted in stateInTable) is
	// dropped, as is any scanner error on oversized input.

	artifacts := make([]domain.Artifact, 0, len(tables)+len(plots)+1)
	artifacts = append(artifacts, tables...)
	artifacts = append(artifacts, plots...)
	if len(metrics) > 0 {
		artifacts = append(artifacts, domain.Artifact{
			Type:  domain.ArtifactMetrics,
			Items: metrics,
		})
	}
	return artifacts
}

// parseTable decodes a captured table body as a JSON array of homogeneous
// objects and flattens it into header + stringified rows.
func parseTable(name, body string) (domain.Artifact, bool) {
	var records []map[string]any
	if err := json.Unmarshal([]byte(body), &records); err != nil || len(records) == 0 {
		return domain.Artifact{}, false
	}

	headers, err := firstObjectKeys([]byte(body))
	if err != nil || len(headers) == 0 {
		return domain.Artifact{}, false
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, headers)
	for _, rec := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = stringify(rec[h])
		}
		rows = append(rows, row)
	}

	return domain.Artifact{
		Type:  domain.ArtifactTable,
		Name:  name,
		Table: rows,
	}, true
}

// firstObjectKeys returns the keys of the first object in a JSON array, in
// source order. Go maps lose ordering, so the header row is read from the
// token stream instead.
func firstObjectKeys(body []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	if _, err := dec.Token(); err != nil { // [
		return nil, err
	}
	if _, err := dec.Token(); err != nil { // {
		return nil, err
	}

	var keys []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return keys, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in table object", tok)
		}
		keys = append(keys, key)

		// Skip the value, whatever shape it has
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
}

// parseMetric splits "name:value", parsing the value as a float when it
// looks like one and keeping the literal string otherwise.
func parseMetric(rest string) (domain.MetricItem, bool) {
	name, value, found := strings.Cut(rest, ":")
	if !found {
		return domain.MetricItem{}, false
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return domain.MetricItem{Name: name, Value: f}, true
	}
	return domain.MetricItem{Name: name, Value: value}, true
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
