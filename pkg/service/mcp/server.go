// Package mcp exposes the learning assistant as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/usecase/chat"
	"github.com/m-mizutani/sensei/pkg/usecase/ingest"
	"github.com/m-mizutani/sensei/pkg/usecase/topic"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "sensei"
	serverVersion = "0.1.0"
)

// Server wraps an MCP server that serves ask, ingest_text and list_topics
type Server struct {
	server *mcp.Server
	chat   *chat.UseCase
	ingest *ingest.UseCase
	topic  *topic.UseCase
}

type askParams struct {
	Question string `json:"question" jsonschema:"Question to ask the learning assistant"`
}

type ingestTextParams struct {
	Text   string `json:"text" jsonschema:"Learning material to index"`
	Source string `json:"source,omitempty" jsonschema:"Identifier of the material"`
}

type listTopicsParams struct{}

func New(chatUC *chat.UseCase, ingestUC *ingest.UseCase, topicUC *topic.UseCase) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
		chat:   chatUC,
		ingest: ingestUC,
		topic:  topicUC,
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question. The answer uses ingested material, conversation history and web search, with citations.",
	}, s.ask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Split text into passages and add them to the knowledge base",
	}, s.ingestText)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_topics",
		Description: "List topics learned from past conversations",
	}, s.listTopics)

	return s
}

// Handler returns a streamable HTTP handler serving this server
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunStdio serves over stdin/stdout until the client disconnects
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "failed to run MCP server over stdio")
	}
	return nil
}

func (s *Server) ask(ctx context.Context, req *mcp.CallToolRequest, params *askParams) (*mcp.CallToolResult, any, error) {
	reply, err := s.chat.Send(ctx, params.Question)
	if err != nil {
		return toolError(ctx, "ask", err), nil, nil
	}

	var b strings.Builder
	b.WriteString(reply.Answer.Text)
	if len(reply.Suggestions) > 0 {
		b.WriteString("\n\nSuggested next steps:\n")
		for _, s := range reply.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return textResult(b.String()), nil, nil
}

func (s *Server) ingestText(ctx context.Context, req *mcp.CallToolRequest, params *ingestTextParams) (*mcp.CallToolResult, any, error) {
	source := params.Source
	if source == "" {
		source = ingest.DefaultTextSource
	}

	n, err := s.ingest.Text(ctx, params.Text, source)
	if err != nil {
		return toolError(ctx, "ingest_text", err), nil, nil
	}
	return textResult(fmt.Sprintf("Ingested %d chunks from %s", n, source)), nil, nil
}

func (s *Server) listTopics(ctx context.Context, req *mcp.CallToolRequest, params *listTopicsParams) (*mcp.CallToolResult, any, error) {
	topics, err := s.topic.List(ctx)
	if err != nil {
		return toolError(ctx, "list_topics", err), nil, nil
	}
	if len(topics) == 0 {
		return textResult("No topics learned yet."), nil, nil
	}

	lines := make([]string, len(topics))
	for i, t := range topics {
		lines[i] = fmt.Sprintf("- %s: %s", t.Topic, t.Description)
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// toolError reports the failure to the client. Only caller errors are
// described; the rest are logged and hidden.
func toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	msg := "An internal error occurred."
	if model.IsBadRequest(err) || model.IsNotFound(err) {
		msg = err.Error()
	} else {
		logging.From(ctx).Error("MCP tool failed", "tool", tool, "error", err)
	}

	result := textResult(msg)
	result.IsError = true
	return result
}
