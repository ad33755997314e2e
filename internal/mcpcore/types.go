// Package mcpcore defines the Model Context Protocol JSON-RPC 2.0 wire
// types for protocol version 2024-11-05. It is a type-only surface: no
// transport is implemented here, since concrete channel/server transports
// are collaborators outside this core. A future stdio or HTTP transport
// consumes these types directly.
package mcpcore

import "encoding/json"

// ProtocolVersion is the MCP protocol version this type surface implements.
const ProtocolVersion = "2024-11-05"

// JSONRPCRequest is a JSON-RPC 2.0 request object. ID may hold a JSON
// number, string, or nil — it is serialized as the bare value, never
// wrapped, since json.Marshal already does this for an `any` field holding
// one of those three underlying types.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response. Exactly one of Result or
// Error is present.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// NewSuccessResponse builds a JSONRPCResponse carrying result.
func NewSuccessResponse(id any, result json.RawMessage) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

// NewErrorResponse builds a JSONRPCResponse carrying a JSON-RPC error.
func NewErrorResponse(id any, code int, message string, data json.RawMessage) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{Code: code, Message: message, Data: data}}
}

// JSONRPCNotification is a JSON-RPC 2.0 notification: a request with no ID.
type JSONRPCNotification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCError is the error object carried by a JSONRPCResponse.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCP-specific error codes.
const (
	ErrCodeResourceNotFound = -32001
	ErrCodeToolNotFound     = -32002
)

// IncomingMessage is a message whose kind (request vs. notification) isn't
// known until after decoding: Method is always present, ID is present only
// for requests. Params defaults to a JSON null when the field is absent
// from the wire, via UnmarshalJSON.
type IncomingMessage struct {
	JSONRPC string
	ID      any
	HasID   bool
	Method  string
	Params  json.RawMessage
}

// IsNotification reports whether the message carries no id.
func (m IncomingMessage) IsNotification() bool { return !m.HasID }

// UnmarshalJSON decodes an IncomingMessage, tracking whether an id field
// was present at all (as opposed to present-and-null) and defaulting Params
// to JSON null when the field is missing.
func (m *IncomingMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.JSONRPC = raw.JSONRPC
	m.Method = raw.Method
	m.HasID = raw.ID != nil
	if m.HasID {
		if err := json.Unmarshal(raw.ID, &m.ID); err != nil {
			return err
		}
	}
	if raw.Params == nil {
		m.Params = json.RawMessage("null")
	} else {
		m.Params = raw.Params
	}
	return nil
}

// InitializeParams are the params of an initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// ClientCapabilities are advertised by the connecting client. Empty today;
// reserved for future extension the way the original leaves it.
type ClientCapabilities struct{}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is returned by the server for an initialize request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// ServerInfo identifies the MCP server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities are advertised by the server.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

// ToolsCapability describes the tools subsystem's capabilities.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability describes the resources subsystem's capabilities.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// Tool describes a single tool exposed by the server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsResult is the result of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams are the params of tools/call: {name, arguments?}.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is the result of tools/call:
// {content: [ToolContent], isError?}. Tool-level failures are signaled by
// IsError, not by a JSON-RPC error envelope.
type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolContent is a single content block in a tool result: either
// {type:"text", text} or {type:"image", data, mimeType}.
type ToolContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextContent builds a {type:"text", text} content block.
func TextContent(text string) ToolContent {
	return ToolContent{Type: "text", Text: text}
}

// ImageContent builds a {type:"image", data, mimeType} content block.
func ImageContent(base64Data, mimeType string) ToolContent {
	return ToolContent{Type: "image", Data: base64Data, MimeType: mimeType}
}

// Resource describes a single resource exposed by the server.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesResult is the result of resources/list.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ReadResourceParams are the params of resources/read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult is the result of resources/read.
type ReadResourceResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceContent is a single content block in a resource read result.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}
