// Package transport speaks Socket.IO v4 (Engine.IO v4, websocket transport)
// to the game feeds.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Engine.IO packet types.
const (
	EngineOpen    byte = '0'
	EngineClose   byte = '1'
	EnginePing    byte = '2'
	EnginePong    byte = '3'
	EngineMessage byte = '4'
	EngineNoop    byte = '6'
)

// Socket.IO packet types carried inside an Engine.IO message.
const (
	SocketConnect      byte = '0'
	SocketDisconnect   byte = '1'
	SocketEvent        byte = '2'
	SocketAck          byte = '3'
	SocketConnectError byte = '4'
	SocketBinaryEvent  byte = '5'
	SocketBinaryAck    byte = '6'
)

var (
	errEmptyPacket = errors.New("empty packet")
	errBinary      = errors.New("binary packets are not supported")
)

// Packet is a decoded text frame. Socket fields are only set for Engine.IO
// messages.
type Packet struct {
	EngineType byte
	SocketType byte
	Namespace  string
	AckID      string
	Event      string
	Data       json.RawMessage
}

// OpenInfo is the Engine.IO handshake sent by the server.
type OpenInfo struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// -----------------------------------------------------------------------------

func nsPrefix(ns string) string {
	if ns == "" || ns == "/" {
		return ""
	}
	return ns + ","
}

// EncodeConnect builds a namespace CONNECT with an optional auth payload.
func EncodeConnect(ns string, auth interface{}) (string, error) {
	out := string(EngineMessage) + string(SocketConnect) + nsPrefix(ns)
	if auth == nil {
		return out, nil
	}
	b, err := json.Marshal(auth)
	if err != nil {
		return "", fmt.Errorf("encode connect auth: %w", err)
	}
	return out + string(b), nil
}

// EncodeEvent builds an EVENT carrying [event, payload].
func EncodeEvent(ns, event string, payload interface{}) (string, error) {
	args := []interface{}{event}
	if payload != nil {
		args = append(args, payload)
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode event %s: %w", event, err)
	}
	return string(EngineMessage) + string(SocketEvent) + nsPrefix(ns) + string(b), nil
}

func EncodeDisconnect(ns string) string {
	return string(EngineMessage) + string(SocketDisconnect) + nsPrefix(ns)
}

// -----------------------------------------------------------------------------

// Decode parses one text frame.
func Decode(raw string) (Packet, error) {
	if raw == "" {
		return Packet{}, errEmptyPacket
	}
	p := Packet{EngineType: raw[0]}
	rest := raw[1:]
	if p.EngineType != EngineMessage {
		if rest != "" {
			p.Data = json.RawMessage(rest)
		}
		return p, nil
	}
	if rest == "" {
		return p, errEmptyPacket
	}

	p.SocketType = rest[0]
	rest = rest[1:]
	if p.SocketType == SocketBinaryEvent || p.SocketType == SocketBinaryAck {
		return p, errBinary
	}

	p.Namespace = "/"
	if strings.HasPrefix(rest, "/") {
		if i := strings.IndexByte(rest, ','); i >= 0 {
			p.Namespace, rest = rest[:i], rest[i+1:]
		} else {
			p.Namespace, rest = rest, ""
		}
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	p.AckID, rest = rest[:i], rest[i:]
	if rest == "" {
		return p, nil
	}

	if p.SocketType != SocketEvent && p.SocketType != SocketAck {
		p.Data = json.RawMessage(rest)
		return p, nil
	}

	var args []json.RawMessage
	if err := json.Unmarshal([]byte(rest), &args); err != nil {
		return p, fmt.Errorf("decode event args: %w", err)
	}
	if p.SocketType == SocketAck {
		if len(args) > 0 {
			p.Data = args[0]
		}
		return p, nil
	}
	if len(args) == 0 {
		return p, errors.New("event without name")
	}
	if err := json.Unmarshal(args[0], &p.Event); err != nil {
		return p, fmt.Errorf("decode event name: %w", err)
	}
	if len(args) > 1 {
		p.Data = args[1]
	}
	return p, nil
}

// connectError extracts the message of a CONNECT_ERROR packet.
func connectError(p Packet) error {
	var body struct {
		Message string `json:"message"`
	}
	if len(p.Data) > 0 && json.Unmarshal(p.Data, &body) == nil && body.Message != "" {
		return errors.New(body.Message)
	}
	if len(p.Data) > 0 {
		return errors.New(strings.Trim(string(p.Data), `"`))
	}
	return errors.New("namespace connect refused")
}

func jsonUnmarshal(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return errEmptyPacket
	}
	return json.Unmarshal(data, v)
}
