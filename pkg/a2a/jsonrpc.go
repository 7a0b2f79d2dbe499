package a2a

import "encoding/json"

// JSON-RPC 2.0 method names the core server/client exchange.
const (
	MethodTasksSend          = "tasks/send"
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
)

// RPCRequest is the JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCResponse is the JSON-RPC 2.0 response envelope; Result and Error are
// mutually exclusive.
type RPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// NewRPCRequest builds a request envelope with a freshly generated id.
func NewRPCRequest(method string, params any) (*RPCRequest, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &RPCRequest{JSONRPC: "2.0", ID: NewID(), Method: method, Params: raw}, nil
}

// IsRPCEnvelope reports whether data looks like a JSON-RPC 2.0 envelope
// (has both "jsonrpc" and "method" top-level keys), the dispatch test used
// by pkg/server's content-based routing.
func IsRPCEnvelope(data []byte) bool {
	var probe struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.JSONRPC != "" && probe.Method != ""
}

func RPCResult(id any, result any) *RPCResponse {
	return &RPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func RPCErrorResponse(id any, err error) *RPCResponse {
	return &RPCResponse{JSONRPC: "2.0", ID: id, Error: ToJSONRPCError(err)}
}
