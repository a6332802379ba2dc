// Package protocol defines the JSON messages spoken by the path service and
// their stable error codes. The core library does not depend on it; it exists
// for the websocket boundary and its schema tests.
package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

const (
	TypeHello       = "HELLO"
	TypeWelcome     = "WELCOME"
	TypePathRequest = "PATH_REQUEST"
	TypePathResult  = "PATH_RESULT"
	TypeCancel      = "CANCEL"
	TypeError       = "ERROR"
)

type BaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

func DecodeBase(b []byte) (BaseMsg, error) {
	var m BaseMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode base: %w", err)
	}
	if m.Type == "" {
		return m, fmt.Errorf("decode base: missing type")
	}
	return m, nil
}
