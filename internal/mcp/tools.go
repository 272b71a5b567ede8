package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Tool names.
const (
	ToolNoteList   = "note_list"
	ToolNoteCreate = "note_create"
	ToolNoteUpdate = "note_update"
	ToolNoteDelete = "note_delete"
)

type schemaProp struct {
	name, typ, desc string
}

// objectSchema builds a JSON schema object whose listed properties are all required.
func objectSchema(props ...schemaProp) map[string]any {
	properties := map[string]any{}
	required := make([]string, 0, len(props))
	for _, p := range props {
		properties[p.name] = map[string]any{"type": p.typ, "description": p.desc}
		required = append(required, p.name)
	}
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ToolDefinitions returns the notes MCP tool definitions.
func ToolDefinitions() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        ToolNoteList,
			Description: "List every note ordered by id (oldest first). Returns each note's id, full content and line count. Use this to find the id of a note before note_update or note_delete.",
			InputSchema: objectSchema(),
		},
		{
			Name:        ToolNoteCreate,
			Description: "Create a new note. Content is plain text and may use Markdown; an empty string is allowed. Returns the new note's id and content.",
			InputSchema: objectSchema(
				schemaProp{"content", "string", "The text of the note (required)"},
			),
		},
		{
			Name:        ToolNoteUpdate,
			Description: "Replace the entire content of an existing note. The id never changes. Fails with not_found if no note has that id. Concurrent updates are last write wins.",
			InputSchema: objectSchema(
				schemaProp{"id", "integer", "The id of the note to update"},
				schemaProp{"content", "string", "The new full text of the note"},
			),
		},
		{
			Name:        ToolNoteDelete,
			Description: "Permanently delete a note. Deleting an id that does not exist succeeds and changes nothing.",
			InputSchema: objectSchema(
				schemaProp{"id", "integer", "The id of the note to delete"},
			),
		},
	}
}
