package tools

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/iancoleman/strcase"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// ToolDefinition describes a tool that can be proposed by the model and
// executed locally.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Function    ToolFunc           `json:"-"`
	Tags        []string           `json:"tags,omitempty"`
}

// ToolFunc wraps the registered Go function with a pre-compiled executor.
type ToolFunc struct {
	Fn        interface{}                                        `json:"-"`
	executor  func(context.Context, []byte) (interface{}, error) `json:"-"`
	inputType reflect.Type                                       `json:"-"`
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errType = reflect.TypeOf((*error)(nil)).Elem()

// NewToolFromFunc builds a ToolDefinition from a Go function. Supported
// signatures are func(Input) (Result, error) and
// func(context.Context, Input) (Result, error), where Input is a struct
// whose JSON schema becomes the tool's parameter schema.
func NewToolFromFunc(name, description string, fn interface{}) (*ToolDefinition, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, errors.New("provided value is not a function")
	}
	if funcType.NumOut() != 2 || !funcType.Out(1).Implements(errType) {
		return nil, errors.New("function must return (result, error)")
	}

	inputType, err := toolInputType(funcType)
	if err != nil {
		return nil, err
	}

	reflector := jsonschema.Reflector{
		// Inline definitions, providers reject $ref schemas
		DoNotReference: true,
	}
	schema := reflector.Reflect(reflect.New(inputType).Elem().Interface())
	if schema.Type == "" {
		schema.Type = "object"
	}

	return &ToolDefinition{
		// tool names are snake_case on the wire
		Name:        NormalizeName(name),
		Description: description,
		Parameters:  schema,
		Function: ToolFunc{
			Fn:        fn,
			executor:  makeExecutor(fn, funcType, inputType),
			inputType: inputType,
		},
	}, nil
}

func toolInputType(funcType reflect.Type) (reflect.Type, error) {
	switch funcType.NumIn() {
	case 1:
		if funcType.In(0) == ctxType {
			return nil, errors.New("function must take an input struct")
		}
		return funcType.In(0), nil
	case 2:
		if funcType.In(0) != ctxType {
			return nil, errors.New("two-arg tool function must be (context.Context, Input)")
		}
		return funcType.In(1), nil
	default:
		return nil, errors.New("function must take (Input) or (context.Context, Input)")
	}
}

func makeExecutor(fn interface{}, funcType reflect.Type, inputType reflect.Type) func(context.Context, []byte) (interface{}, error) {
	funcValue := reflect.ValueOf(fn)
	wantsCtx := funcType.NumIn() == 2

	return func(ctx context.Context, args []byte) (interface{}, error) {
		input := reflect.New(inputType)
		if len(args) > 0 {
			if err := json.Unmarshal(args, input.Interface()); err != nil {
				return nil, errors.Wrap(err, "unmarshal tool arguments")
			}
		}

		callArgs := []reflect.Value{input.Elem()}
		if wantsCtx {
			callArgs = append([]reflect.Value{reflect.ValueOf(ctx)}, callArgs...)
		}
		results := funcValue.Call(callArgs)

		result := results[0].Interface()
		if errV := results[1].Interface(); errV != nil {
			return result, errV.(error)
		}
		return result, nil
	}
}

// Execute invokes the wrapped function with the given JSON arguments.
func (tf *ToolFunc) Execute(ctx context.Context, args []byte) (interface{}, error) {
	if tf.executor == nil {
		return nil, errors.New("tool function not properly initialized")
	}
	return tf.executor(ctx, args)
}

// NormalizeName converts an arbitrary identifier to the snake_case form
// used for tool names on the wire.
func NormalizeName(name string) string {
	return strcase.ToSnake(name)
}

// ToolCall is a request, proposed by the model, to execute a named tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the outcome of executing a ToolCall. Expected failures are
// encoded in-band in Content (see ErrorResult); Content is what gets fed
// back to the model as the tool message.
type ToolResult struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}
