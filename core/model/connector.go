package model

import (
	"errors"
	"fmt"
	"strings"
)

// ConnectorType identifies the plug standard of a charger.
type ConnectorType int

const (
	Type2 ConnectorType = iota
	CCS
	CHAdeMO
	Tesla
	Worksite // household / worksite socket
)

// ErrUnknownConnector is returned when a connector token cannot be parsed.
var ErrUnknownConnector = errors.New("unknown connector type")

// AllConnectors lists every supported connector type.
var AllConnectors = []ConnectorType{Type2, CCS, CHAdeMO, Tesla, Worksite}

// String returns the canonical name of the connector type.
func (c ConnectorType) String() string {
	switch c {
	case Type2:
		return "Type2"
	case CCS:
		return "CCS"
	case CHAdeMO:
		return "CHAdeMO"
	case Tesla:
		return "Tesla"
	case Worksite:
		return "Worksite"
	default:
		return "unknown"
	}
}

// IsDC reports whether the connector delivers direct current.
func (c ConnectorType) IsDC() bool {
	switch c {
	case CCS, CHAdeMO, Tesla:
		return true
	default:
		return false
	}
}

// ParseConnector converts a data-file token into a ConnectorType.
func ParseConnector(token string) (ConnectorType, error) {
	switch strings.TrimSpace(token) {
	case "Type2", "Type 2":
		return Type2, nil
	case "CCS", "CCS (HPC)":
		return CCS, nil
	case "CHAdeMO":
		return CHAdeMO, nil
	case "Tesla", "SuperCharger":
		return Tesla, nil
	case "Worksite", "Työmaapistoke":
		return Worksite, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownConnector, token)
}

// MarshalText implements encoding.TextMarshaler.
func (c ConnectorType) MarshalText() ([]byte, error) {
	if c < Type2 || c > Worksite {
		return nil, fmt.Errorf("%w: %d", ErrUnknownConnector, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ConnectorType) UnmarshalText(b []byte) error {
	v, err := ParseConnector(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
