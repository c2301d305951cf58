package keeper

// M is an untyped record, handy for tests and ad hoc collections.
// Numbers decoded from json are float64.
type M map[string]interface{}

// String returns the string under k, or "" when k is missing or holds
// another type.
func (m M) String(k string) string {
	v, ok := m[k].(string)
	if !ok {
		return ""
	}
	return v
}
