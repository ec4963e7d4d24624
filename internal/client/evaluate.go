package client

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/AgentOS/electron/internal/protocol"
)

var functionPrefix = regexp.MustCompile(`^(async\s+)?(function\b|\(?[\w$]*\)?\s*=>|\([^)]*\)\s*=>)`)

// isFunctionExpression reports whether expression is a function to be
// invoked with the argument rather than an expression to be evaluated.
func isFunctionExpression(expression string) bool {
	return functionPrefix.MatchString(strings.TrimSpace(expression))
}

func evaluateParams(expression string, arg []interface{}) (map[string]interface{}, error) {
	var value interface{}
	switch len(arg) {
	case 0:
		value = protocol.Undefined
	case 1:
		value = arg[0]
	default:
		return nil, fmt.Errorf("evaluate accepts at most one argument, got %d", len(arg))
	}

	serialized, err := serializeArgument(value)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"expression": expression,
		"isFunction": isFunctionExpression(expression),
		"arg":        serialized,
	}, nil
}

type callFunc func(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error)

func evaluate(ctx context.Context, call callFunc, expression string, arg []interface{}) (interface{}, error) {
	params, err := evaluateParams(expression, arg)
	if err != nil {
		return nil, err
	}
	res, err := call(ctx, "evaluateExpression", params)
	if err != nil {
		return nil, err
	}
	return parseResult(res["value"].(protocol.SerializedValue))
}

func evaluateHandle(ctx context.Context, call callFunc, expression string, arg []interface{}) (*JSHandle, error) {
	params, err := evaluateParams(expression, arg)
	if err != nil {
		return nil, err
	}
	res, err := call(ctx, "evaluateExpressionHandle", params)
	if err != nil {
		return nil, err
	}
	handle, ok := res["handle"].(*JSHandle)
	if !ok {
		return nil, fmt.Errorf("evaluateExpressionHandle returned %T, want *JSHandle", res["handle"])
	}
	return handle, nil
}
