package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *ChainCheckClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *ChainCheckClient) *Handlers {
	return &Handlers{client: client}
}

// HandleCheckEntity runs a fraud check and renders the verdict.
func (h *Handlers) HandleCheckEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value := req.GetString("value", "")
	if value == "" {
		return mcp.NewToolResultError("value is required"), nil
	}

	raw, err := h.client.CheckEntity(ctx, value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Check failed: %v", err)), nil
	}

	text, err := formatCheck(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse check result: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleReportEntity files a fraud report.
func (h *Handlers) HandleReportEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value := req.GetString("value", "")
	if value == "" {
		return mcp.NewToolResultError("value is required"), nil
	}
	category := req.GetString("category", "")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	description := req.GetString("description", "")
	reporter := req.GetString("reporter", "")

	raw, err := h.client.SubmitReport(ctx, value, category, description, reporter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Report submission failed: %v", err)), nil
	}

	reportID := ""
	var resp struct {
		Report struct {
			ID         string `json:"id"`
			Normalized string `json:"normalizedValue"`
		} `json:"report"`
	}
	if json.Unmarshal(raw, &resp) == nil {
		reportID = resp.Report.ID
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Report filed against %s.\n"+
			"Category: %s\n"+
			"Report ID: %s",
		value, category, reportID)), nil
}

// HandleGetReports lists community reports for an entity.
func (h *Handlers) HandleGetReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value := req.GetString("value", "")
	if value == "" {
		return mcp.NewToolResultError("value is required"), nil
	}
	limit := req.GetInt("limit", 10)

	raw, err := h.client.GetReports(ctx, value, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch reports: %v", err)), nil
	}

	text, err := formatReports(raw, value)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reports: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleListBlacklist browses the curated blacklist.
func (h *Handlers) HandleListBlacklist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListBlacklist(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list blacklist: %v", err)), nil
	}

	text, err := formatBlacklist(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse blacklist: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- Formatting helpers ---

func formatCheck(raw json.RawMessage) (string, error) {
	// Check responses come wrapped in {meta, data}.
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil {
		return "", fmt.Errorf("unexpected check response format")
	}
	data := envelope.Data

	var sb strings.Builder

	if e, ok := data["entity"].(map[string]any); ok {
		fmt.Fprintf(&sb, "Entity: %s (%s)\n", getString(e, "normalizedValue", "value"), getString(e, "entityType"))
	}

	if a, ok := data["assessment"].(map[string]any); ok {
		fmt.Fprintf(&sb, "Verdict: %s", getString(a, "riskLevel"))
		if score, ok := getFloat(a, "riskScore"); ok {
			fmt.Fprintf(&sb, " (risk score %.0f/100)", score)
		}
		sb.WriteString("\n")
		if cat := getString(a, "threatCategory"); cat != "" {
			fmt.Fprintf(&sb, "Threat category: %s\n", cat)
		}
		if conf, ok := getFloat(a, "confidence"); ok {
			fmt.Fprintf(&sb, "Confidence: %.0f%%\n", conf*100)
		}
	}

	if signals, ok := data["signals"].(map[string]any); ok && len(signals) > 0 {
		sb.WriteString("\nSignals:\n")
		for _, name := range []string{"blacklist", "whitelist", "virusTotal", "lookAlike", "mlScore", "identity", "transactions"} {
			s, ok := signals[name].(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "  %s: %s\n", name, summarizeSignal(name, s))
		}
	}

	if stats, ok := data["stats"].(map[string]any); ok {
		if n, ok := getFloat(stats, "userReportCount"); ok && n > 0 {
			fmt.Fprintf(&sb, "\nCommunity reports: %.0f\n", n)
		}
	}

	return sb.String(), nil
}

func summarizeSignal(name string, s map[string]any) string {
	switch name {
	case "blacklist":
		if found, _ := s["found"].(bool); found {
			return fmt.Sprintf("LISTED as %s (%s)", getString(s, "category"), getString(s, "source"))
		}
		return "not listed"
	case "whitelist":
		if found, _ := s["found"].(bool); found {
			return fmt.Sprintf("verified by %s", getString(s, "source"))
		}
		return "not listed"
	case "virusTotal":
		verdict := getString(s, "verdict")
		if pos, ok := getFloat(s, "positives"); ok {
			if total, ok := getFloat(s, "total"); ok {
				return fmt.Sprintf("%s (%.0f/%.0f engines)", verdict, pos, total)
			}
		}
		return verdict
	case "lookAlike":
		if match, _ := s["match"].(bool); match {
			return fmt.Sprintf("impersonates %s", getString(s, "target"))
		}
		return "no impersonation detected"
	case "mlScore":
		if score, ok := getFloat(s, "score"); ok {
			return fmt.Sprintf("%.2f (%s)", score, getString(s, "recommendation"))
		}
		return getString(s, "recommendation")
	case "identity":
		if found, _ := s["found"].(bool); found {
			return "known as " + getString(s, "name")
		}
		return "unknown"
	case "transactions":
		if active, _ := s["active"].(bool); active {
			return fmt.Sprintf("active, %s ETH", getString(s, "balance"))
		}
		return "no on-chain activity"
	}
	return formatJSONValue(s)
}

func formatReports(raw json.RawMessage, value string) (string, error) {
	var resp struct {
		Reports []map[string]any `json:"reports"`
		Total   float64          `json:"total"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected reports response format")
	}

	if resp.Total == 0 {
		return fmt.Sprintf("No reports filed against %s.", value), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%.0f report(s) against %s:\n\n", resp.Total, value)
	for i, r := range resp.Reports {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, getString(r, "category"), getString(r, "createdAt"))
		if desc := getString(r, "description"); desc != "" {
			fmt.Fprintf(&sb, "   %s\n", desc)
		}
	}
	return sb.String(), nil
}

func formatBlacklist(raw json.RawMessage) (string, error) {
	var resp struct {
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected blacklist response format")
	}

	if len(resp.Entries) == 0 {
		return "Blacklist is empty.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d blacklist entr(ies):\n\n", len(resp.Entries))
	for i, e := range resp.Entries {
		fmt.Fprintf(&sb, "%d. %s (%s) - %s\n",
			i+1,
			getString(e, "normalizedValue"),
			getString(e, "entityType"),
			getString(e, "category"))
		if reason := getString(e, "reason"); reason != "" {
			fmt.Fprintf(&sb, "   %s\n", reason)
		}
	}
	return sb.String(), nil
}

func formatJSONValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return string(data)
	}
	return pretty.String()
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
