package filter

import "fmt"

// UnterminatedPolicy decides what happens when input ends inside a block.
type UnterminatedPolicy string

const (
	// PolicyDrop silently drops everything after the block trigger.
	PolicyDrop UnterminatedPolicy = "drop"
	// PolicyFail reports ErrUnterminatedBlock and leaves the file untouched.
	PolicyFail UnterminatedPolicy = "fail"
)

// ParsePolicy validates a policy name. An empty name selects PolicyDrop.
func ParsePolicy(s string) (UnterminatedPolicy, error) {
	switch UnterminatedPolicy(s) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", fmt.Errorf("invalid unterminated policy %q: must be one of drop, fail", s)
	}
}

// Check returns an error when res ended inside a block and p is PolicyFail.
func (p UnterminatedPolicy) Check(res *Result) error {
	if res.Open == nil || p != PolicyFail {
		return nil
	}

	return res.Open.Err()
}
