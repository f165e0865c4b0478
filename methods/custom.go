package methods

import "maps"

// Custom calls a method this package has no record for. Data is sent as the
// argument object; accountId is added unless Data already carries one.
// Responses decode to *dispatch.Passthrough unless a shape is registered
// for Name.
type Custom struct {
	Account
	Name  string
	Using []string
	Data  map[string]any
}

func (c Custom) MethodName() string     { return c.Name }
func (c Custom) Capabilities() []string { return c.Using }

// MarshalJMAP sends a copy of Data as the arguments.
func (c Custom) MarshalJMAP() (any, error) {
	out := maps.Clone(c.Data)
	if out == nil {
		out = map[string]any{}
	}
	if c.AccountID != "" {
		if _, ok := out["accountId"]; !ok {
			out["accountId"] = c.AccountID
		}
	}
	return out, nil
}
