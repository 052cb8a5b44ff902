// Package codec holds types shared across the report, remotecontrol and
// macro wire codecs.
package codec

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Permission is the caller's authorization level, carried on every
// remote-control and macro request the platform accepts.
type Permission int

const (
	Operator Permission = iota
	Admin
	Root
)

func (p Permission) String() string {
	switch p {
	case Operator:
		return "operator"
	case Admin:
		return "admin"
	case Root:
		return "root"
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}

// MarshalJSON renders p as its lowercase wire token.
func (p Permission) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(p.String())
}

// UnmarshalJSON parses a lowercase permission token.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "operator":
		*p = Operator
	case "admin":
		*p = Admin
	case "root":
		*p = Root
	default:
		return fmt.Errorf("unknown permission %q", s)
	}
	return nil
}
