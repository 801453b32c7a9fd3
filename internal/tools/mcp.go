package tools

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/penshort/usermcp/internal/audit"
	"github.com/penshort/usermcp/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// internalErrorBody is sent when the envelope itself cannot be encoded.
const internalErrorBody = `{"error":"Internal Error","details":null}`

// NewServer creates an MCP server exposing the facade's tools.
func NewServer(name, version string, f *Facade, w *audit.Wrapper) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	Register(s, f, w)
	return s
}

// Register adds the user tools to s.
func Register(s *server.MCPServer, f *Facade, w *audit.Wrapper) {
	s.AddTools(Tools(f, w)...)
}

// Tools returns the tool definitions bound to f. Every handler runs its
// operation through w under the tool's own name.
func Tools(f *Facade, w *audit.Wrapper) []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolListUsers,
				mcp.WithDescription("List users page by page in file order."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithNumber("page",
					mcp.Description("Page number, starting at 1"),
					mcp.DefaultNumber(defaultPage),
					mcp.Min(1),
				),
				mcp.WithNumber("page_size",
					mcp.Description("Users per page"),
					mcp.DefaultNumber(float64(f.cfg.DefaultPageSize)),
					mcp.Min(1),
					mcp.Max(MaxPageSize),
				),
			),
			Handler: handle(audit.Wrap(w, ToolListUsers, f.ListUsers)),
		},
		{
			Tool: mcp.NewTool(ToolGetUserByID,
				mcp.WithDescription("Get a single user by id."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithNumber("user_id",
					mcp.Required(),
					mcp.Description("Unique user id"),
				),
			),
			Handler: handle(audit.Wrap(w, ToolGetUserByID, f.GetUserByID)),
		},
		{
			Tool: mcp.NewTool(ToolSearchUsers,
				mcp.WithDescription("Search users by first name, last name or email (case-insensitive substring)."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search text, at least 2 characters"),
					mcp.MinLength(MinQueryLength),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of results"),
					mcp.DefaultNumber(DefaultLimit),
					mcp.Min(1),
					mcp.Max(MaxLimit),
				),
			),
			Handler: handle(audit.Wrap(w, ToolSearchUsers, f.SearchUsers)),
		},
	}
}

func handle(op audit.Operation[*Result]) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := op(ctx, req.GetArguments())
		return Encode(result, err), nil
	}
}

// Encode turns an operation outcome into exactly one JSON text result.
// Invalid parameters become an "Invalid Parameter" envelope and any other
// error an "Internal Error" envelope without details. Every envelope except
// "User not found" sets IsError.
func Encode(result *Result, err error) *mcp.CallToolResult {
	var (
		body   any
		failed bool
	)
	switch {
	case errors.Is(err, ErrInvalidParameter):
		body, failed = model.NewErrorResponse(CategoryInvalidParameter, err.Error()), true
	case err != nil || result == nil:
		body, failed = model.NewErrorResponse(CategoryInternal, ""), true
	default:
		body = result.Envelope()
		category, _, isFailure := result.Failure()
		// A lookup miss is an answer, not a tool error.
		failed = isFailure && category != CategoryNotFound
	}

	data, mErr := json.Marshal(body)
	if mErr != nil {
		data, failed = []byte(internalErrorBody), true
	}

	res := mcp.NewToolResultText(string(data))
	res.IsError = failed
	return res
}
