package mcp

import (
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode 将 MCP 请求参数解码为具体类型
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	b, err := sonic.Marshal(args)
	if err != nil {
		return result, errors.Wrap(err, "marshal args")
	}
	if err := sonic.Unmarshal(b, &result); err != nil {
		return result, errors.Wrap(err, "unmarshal args")
	}
	return result, nil
}
