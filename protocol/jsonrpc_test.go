package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func TestRequestSerializesAsSingleObject(t *testing.T) {
	req := Request{
		JSONRPC: Version,
		Method:  "tools/call",
		Params:  ldvalue.ObjectBuild().Set("name", ldvalue.String("list_tables")).Build(),
		ID:      3,
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	parsed := ldvalue.Parse(data)
	assert.Equal(t, "2.0", parsed.GetByKey("jsonrpc").StringValue())
	assert.Equal(t, "tools/call", parsed.GetByKey("method").StringValue())
	assert.Equal(t, 3, parsed.GetByKey("id").IntValue())
	assert.Equal(t, "list_tables", parsed.GetByKey("params").GetByKey("name").StringValue())
}

func TestParseSuccessResponse(t *testing.T) {
	resp, err := ParseResponse(`{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`)
	require.NoError(t, err)

	assert.True(t, resp.Success())
	assert.True(t, resp.IDMatches(1))
	assert.False(t, resp.IDMatches(2))
	assert.Equal(t, 0, resp.Result.GetByKey("tools").Count())
}

func TestParseErrorResponse(t *testing.T) {
	resp, err := ParseResponse(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`)
	require.NoError(t, err)

	assert.False(t, resp.Success())
	require.NotNil(t, resp.Err)
	assert.Equal(t, int64(-32601), resp.Err.Code)
	assert.Equal(t, "method not found", resp.Err.Message)
}

func TestParseResponseWithNullResult(t *testing.T) {
	resp, err := ParseResponse(`{"jsonrpc":"2.0","id":1,"result":null}`)
	require.NoError(t, err)

	assert.True(t, resp.Success())
	assert.True(t, resp.Result.IsNull())
}

func TestParseResponseWithNeitherResultNorError(t *testing.T) {
	resp, err := ParseResponse(`{"jsonrpc":"2.0","id":1}`)
	require.NoError(t, err)

	assert.False(t, resp.Success())
}

func TestParseRejectsNonJSONLine(t *testing.T) {
	_, err := ParseResponse("Traceback (most recent call last):")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Traceback (most recent call last):", pe.Raw)
}

func TestIDMatchToleratesStringIDsElsewhere(t *testing.T) {
	resp, err := ParseResponse(`{"jsonrpc":"2.0","id":"1","result":{}}`)
	require.NoError(t, err)

	// A string id never equals a numeric request id; the session logs the
	// mismatch but still accepts the response.
	assert.False(t, resp.IDMatches(1))
	assert.True(t, resp.Success())
}
