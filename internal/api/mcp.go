package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"furnish/internal/logging"
)

const recommendSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "The shopper's latest message"},
    "history": {
      "type": "array",
      "description": "Earlier turns, oldest first",
      "items": {
        "type": "object",
        "properties": {
          "from": {"type": "string", "enum": ["user", "bot"]},
          "text": {"type": "string"}
        },
        "required": ["from", "text"]
      }
    },
    "last_products": {
      "type": "array",
      "description": "The last_products value returned by the previous call",
      "items": {"type": "object"}
    }
  },
  "required": ["query"]
}`

const instructions = "Furniture shopping assistant. Call recommend with the shopper's message; " +
	"pass back the last_products from the previous result and the conversation so far so follow-up questions resolve."

// NewMCPServer exposes the engine as a "recommend" tool.
func NewMCPServer(replier Replier, logger zerolog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer("furnish", version, server.WithInstructions(instructions))
	s.AddTool(
		mcp.NewToolWithRawSchema("recommend", "Find furniture, answer questions about items already shown, or show more results", json.RawMessage(recommendSchema)),
		HandleRecommend(replier, logger),
	)
	return s
}

// HandleRecommend returns the tool handler. Failures are reported as tool
// errors carrying the same JSON body the HTTP API would send.
func HandleRecommend(replier Replier, logger zerolog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, reqID := logging.WithRequestID(ctx, logger, "")
		var args RecommendRequest
		if err := req.BindArguments(&args); err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}

		resp, status := Recommend(ctx, replier, args)
		resp.RequestID = reqID
		body, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(string(body)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
