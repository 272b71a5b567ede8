package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/carlofelipe-hub/coolifytest/internal/errs"
	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
)

// Handler implements MCP tool call handling.
type Handler struct {
	notesSvc *notes.Service
}

// NewHandler creates a new MCP handler over the notes service.
func NewHandler(notesSvc *notes.Service) *Handler {
	return &Handler{notesSvc: notesSvc}
}

// createToolHandler returns a tool handler function for the given tool name.
func (h *Handler) createToolHandler(name string) func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		result, err := h.HandleToolCall(ctx, name, args)
		return result, nil, err
	}
}

// HandleToolCall routes tool calls to appropriate handlers.
func (h *Handler) HandleToolCall(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	switch name {
	case ToolNoteList:
		return h.handleNoteList(ctx, arguments)
	case ToolNoteCreate:
		return h.handleNoteCreate(ctx, arguments)
	case ToolNoteUpdate:
		return h.handleNoteUpdate(ctx, arguments)
	case ToolNoteDelete:
		return h.handleNoteDelete(ctx, arguments)
	default:
		return newToolResultError(errs.New(errs.InvalidArgument, fmt.Sprintf("unknown tool: %s", name))), nil
	}
}

// toolErrorPayload is the JSON body of a failed tool call.
type toolErrorPayload struct {
	Code  errs.Code `json:"code"`
	Error string    `json:"error"`
}

// noteListItem is one entry of the note_list result.
type noteListItem struct {
	ID         int64  `json:"id"`
	Content    string `json:"content"`
	TotalLines int    `json:"total_lines"`
}

// newToolResultText creates a successful tool result with text content.
func newToolResultText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// newToolResultError creates a tool result indicating an error. The text is
// a toolErrorPayload so agents can branch on the code.
func newToolResultError(err error) *mcp.CallToolResult {
	payload := toolErrorPayload{Code: errs.CodeOf(err), Error: errs.MessageOf(err)}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: marshalToolJSON(payload)},
		},
		IsError: true,
	}
}

func marshalToolJSON(value any) string {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response","detail":%q}`, err.Error())
	}
	return string(data)
}

// decodeToolArgs converts loosely-typed tool arguments into dst, rejecting
// unknown fields and type mismatches as invalid_argument.
func decodeToolArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "invalid tool arguments", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.Wrap(errs.InvalidArgument, "invalid tool arguments: "+err.Error(), err)
	}
	return nil
}

func (h *Handler) toolFailed(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	if errs.CodeOf(err) == errs.Internal {
		obs.From(ctx).Error("mcp_tool_failed", "tool", tool, "error", err.Error())
	}
	return newToolResultError(err)
}

func (h *Handler) handleNoteList(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	var in struct{}
	if err := decodeToolArgs(args, &in); err != nil {
		return newToolResultError(err), nil
	}

	list, err := h.notesSvc.List(ctx)
	if err != nil {
		return h.toolFailed(ctx, ToolNoteList, err), nil
	}

	items := make([]noteListItem, 0, len(list))
	for _, n := range list {
		items = append(items, noteListItem{
			ID:         n.ID,
			Content:    n.Content,
			TotalLines: notes.CountLines(n.Content),
		})
	}

	response := struct {
		Notes      []noteListItem `json:"notes"`
		TotalCount int            `json:"total_count"`
	}{
		Notes:      items,
		TotalCount: len(items),
	}
	return newToolResultText(marshalToolJSON(response)), nil
}

func (h *Handler) handleNoteCreate(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	var in struct {
		Content *string `json:"content"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return newToolResultError(err), nil
	}
	if in.Content == nil {
		return newToolResultError(notes.ErrContentRequired), nil
	}

	note, err := h.notesSvc.Create(ctx, *in.Content)
	if err != nil {
		return h.toolFailed(ctx, ToolNoteCreate, err), nil
	}
	return newToolResultText(marshalToolJSON(note)), nil
}

func (h *Handler) handleNoteUpdate(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	var in struct {
		ID      *int64  `json:"id"`
		Content *string `json:"content"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return newToolResultError(err), nil
	}
	if in.ID == nil {
		return newToolResultError(notes.ErrInvalidID), nil
	}
	if in.Content == nil {
		return newToolResultError(notes.ErrContentRequired), nil
	}

	note, err := h.notesSvc.Update(ctx, *in.ID, *in.Content)
	if err != nil {
		return h.toolFailed(ctx, ToolNoteUpdate, err), nil
	}
	return newToolResultText(marshalToolJSON(note)), nil
}

func (h *Handler) handleNoteDelete(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	var in struct {
		ID *int64 `json:"id"`
	}
	if err := decodeToolArgs(args, &in); err != nil {
		return newToolResultError(err), nil
	}
	if in.ID == nil {
		return newToolResultError(notes.ErrInvalidID), nil
	}

	if err := h.notesSvc.Delete(ctx, *in.ID); err != nil {
		return h.toolFailed(ctx, ToolNoteDelete, err), nil
	}
	return newToolResultText(fmt.Sprintf("Note %d deleted.", *in.ID)), nil
}
