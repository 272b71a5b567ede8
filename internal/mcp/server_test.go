package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/testdb"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func postRPC(t *testing.T, srv *httptest.Server, body string) rpcResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out rpcResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	require.Nil(t, out.Error, string(raw))
	return out
}

func newHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := testdb.MustInMemory(t)
	mux := http.NewServeMux()
	mux.Handle("/mcp", NewServer(notes.NewService(store)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServeHTTP_ToolsListAndCall(t *testing.T) {
	srv := newHTTPServer(t)

	out := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &list))
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{ToolNoteList, ToolNoteCreate, ToolNoteUpdate, ToolNoteDelete}, names)

	out = postRPC(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"note_create","arguments":{"content":"from mcp"}}}`)
	var call struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(out.Result, &call))
	require.False(t, call.IsError)
	require.Len(t, call.Content, 1)
	var created notes.Note
	require.NoError(t, json.Unmarshal([]byte(call.Content[0].Text), &created))
	require.Equal(t, "from mcp", created.Content)
}

func TestServeHTTP_PromptsList(t *testing.T) {
	srv := newHTTPServer(t)
	out := postRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"prompts/list","params":{}}`)
	require.Contains(t, string(out.Result), notesWorkflowPromptName)
}

func TestServeHTTP_Preflight(t *testing.T) {
	s := &Server{httpHandler: http.NotFoundHandler()}
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeHTTP_NoWriteFromDelegateReturns500(t *testing.T) {
	server := &Server{
		httpHandler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Contains(t, resp.Body.String(), "MCP handler returned without writing response")
}
