package registry

import (
	"github.com/luma/webservices/protocol"
)

// Validate checks params against the input parameters of a signature: the count
// must match and every parameter must satisfy the type hint at its position.
// A nil list accepts anything.
func Validate(params []protocol.Value, in []Param) bool {
	if in == nil {
		return true
	}

	if len(params) != len(in) {
		return false
	}

	for i, p := range in {
		if !params[i].Is(p.Type) {
			return false
		}
	}

	return true
}

// Match returns the index of the first signature of the entry accepting
// params, using validate for checked signatures. It returns -1 if none does.
func (e *Entry) Match(params []protocol.Value, validate func([]protocol.Value, []Param) bool) int {
	if validate == nil {
		validate = Validate
	}

	for i, sig := range e.Signatures {
		if !sig.Checked() || validate(params, sig.In) {
			return i
		}
	}

	return -1
}
