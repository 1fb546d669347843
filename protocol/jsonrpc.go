package protocol

import (
	"encoding/json"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Version is the JSON-RPC protocol version sent with every request.
const Version = "2.0"

// Request is one outgoing message, serialized as a single line.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  ldvalue.Value `json:"params"`
	ID      int           `json:"id"`
}

// ResponseError is the error member of a response envelope.
type ResponseError struct {
	Code    int64         `json:"code"`
	Message string        `json:"message"`
	Data    ldvalue.Value `json:"data"`
}

func (e *ResponseError) String() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// Response is a parsed response envelope. Exactly one of Result/Err is
// meaningful when Success() is true/false respectively.
type Response struct {
	JSONRPC   string
	ID        ldvalue.Value
	Result    ldvalue.Value
	Err       *ResponseError
	hasResult bool
}

// Success is true if the envelope carried a result member and no error.
func (r *Response) Success() bool {
	return r.Err == nil && r.hasResult
}

// IDMatches reports whether the response id equals the given request id.
// Matching is best-effort: servers that return string ids for numeric
// requests are tolerated by the caller.
func (r *Response) IDMatches(id int) bool {
	return r.ID.Equal(ldvalue.Int(id))
}

// ParseError means a protocol-channel line could not be parsed as a response
// envelope. The raw line is kept for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed protocol line %q: %s", e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type responseEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ldvalue.Value   `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *ResponseError  `json:"error"`
}

// ParseResponse strictly parses one protocol-channel line. Anything that is
// not a JSON object is a *ParseError; the session treats such lines as
// misrouted diagnostic output.
func ParseResponse(line string) (*Response, error) {
	var env responseEnvelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return nil, &ParseError{Raw: line, Err: err}
	}
	resp := &Response{
		JSONRPC: env.JSONRPC,
		ID:      env.ID,
		Err:     env.Error,
	}
	if len(env.Result) > 0 {
		resp.Result = ldvalue.Parse(env.Result)
		resp.hasResult = true
	}
	return resp, nil
}
