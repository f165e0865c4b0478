package methods

import (
	"fmt"
	"maps"
)

// CoreEcho asks the server to return its arguments unchanged. It is not
// account scoped; Data is sent as the argument object itself.
type CoreEcho struct {
	Data map[string]any
}

func (CoreEcho) MethodName() string     { return "Core/echo" }
func (CoreEcho) Capabilities() []string { return nil }

// MarshalJMAP sends Data as the arguments.
func (e CoreEcho) MarshalJMAP() (any, error) {
	if e.Data == nil {
		return map[string]any{}, nil
	}
	return maps.Clone(e.Data), nil
}

// CoreEchoResponse carries the echoed arguments.
type CoreEchoResponse struct {
	Data map[string]any
}

func (CoreEchoResponse) MethodName() string { return "Core/echo" }

// UnmarshalJMAP keeps the whole payload as Data.
func (r *CoreEchoResponse) UnmarshalJMAP(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("jmap: Core/echo response is %T, not an object", value)
	}
	r.Data = m
	return nil
}
