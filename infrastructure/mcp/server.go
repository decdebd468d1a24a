// Package mcp serves the PDF tools over the Model Context Protocol and
// probes a running server as a client.
package mcp

import (
	"context"
	"encoding/json"
	"errors"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/protocol"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/logging"
)

// ErrDispatcherRequired is returned by NewServer without a dispatcher.
var ErrDispatcherRequired = errors.New("dispatcher is required")

// Dispatcher runs tool calls and lists the tools it routes.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args json.RawMessage) (tool.Result, error)
	Tools() []tool.Tool
}

// callResult is the tools/call result. IsError is always present.
type callResult struct {
	Content []tool.Content `json:"content"`
	IsError bool           `json:"isError"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name.
	Name string

	// Version is the server version.
	Version string

	// Description is an optional server description.
	Description string

	// Instructions provides usage instructions for clients.
	Instructions string

	// Dispatcher handles every tool call.
	Dispatcher Dispatcher
}

// Server exposes the dispatcher's tools over MCP.
type Server struct {
	srv        *mcpgo.Server
	dispatcher Dispatcher
	catalog    []ToolDef
	info       mcpgo.ServerInfo
}

// NewServer creates a server for the dispatcher's tools. The catalog is
// served from the tools' own input schemas.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dispatcher == nil {
		return nil, ErrDispatcherRequired
	}

	info := mcpgo.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: cfg.Description,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	}

	var opts []mcpgo.Option
	if cfg.Instructions != "" {
		opts = append(opts, mcpgo.WithInstructions(cfg.Instructions))
	}

	tools := cfg.Dispatcher.Tools()
	if _, err := CompileSchemas(tools); err != nil {
		return nil, err
	}

	return &Server{
		srv:        mcpgo.NewServer(info, opts...),
		dispatcher: cfg.Dispatcher,
		catalog:    Catalog(tools),
		info:       info,
	}, nil
}

// Middleware answers tools/list from the catalog and sends every tools/call
// to the dispatcher, known name or not. Other methods pass through.
func (s *Server) Middleware() mcpgo.Middleware {
	return func(next mcpgo.MiddlewareHandlerFunc) mcpgo.MiddlewareHandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			switch req.Method {
			case protocol.MethodToolsList:
				return protocol.NewResponse(req.ID, map[string]any{"tools": s.catalog}), nil
			case protocol.MethodToolsCall:
				return s.call(ctx, req)
			default:
				return next(ctx, req)
			}
		}
	}
}

// call dispatches one tools/call. Error results stay results with isError
// set; only launch failures become protocol errors.
func (s *Server) call(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams("malformed tools/call params")
	}

	res, err := s.dispatcher.Dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, protocol.NewInternalError(err.Error())
	}
	return protocol.NewResponse(req.ID, callResult{Content: res.Content, IsError: res.IsError}), nil
}

// serveOptions puts the recover and request ID middleware outermost and the
// dispatch middleware innermost, around any caller options.
func (s *Server) serveOptions(opts []mcpgo.ServeOption) []mcpgo.ServeOption {
	all := make([]mcpgo.ServeOption, 0, len(opts)+2)
	all = append(all, mcpgo.WithMiddleware(mcpgo.Recover(), mcpgo.RequestID()))
	all = append(all, opts...)
	return append(all, mcpgo.WithMiddleware(s.Middleware()))
}

// Info returns the advertised server metadata.
func (s *Server) Info() mcpgo.ServerInfo {
	return s.info
}

// ServeStdio runs the server over stdin/stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context, opts ...mcpgo.ServeOption) error {
	logging.Info().
		Add(logging.Component("mcp")).
		Add(logging.Str("transport", "stdio")).
		Msg("serving")
	return mcpgo.ServeStdio(ctx, s.srv, s.serveOptions(opts)...)
}

// ServeHTTP runs the server over HTTP until ctx is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string, opts ...mcpgo.HTTPOption) error {
	logging.Info().
		Add(logging.Component("mcp")).
		Add(logging.Str("transport", "http")).
		Add(logging.Str("addr", addr)).
		Msg("serving")
	return mcpgo.ServeHTTPWithMiddleware(ctx, s.srv, addr, opts, s.serveOptions(nil)...)
}
