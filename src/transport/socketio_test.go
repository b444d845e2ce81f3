package transport

import (
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		engine    byte
		socket    byte
		namespace string
		ackID     string
		event     string
		data      string
	}{
		{"open", `0{"sid":"a"}`, EngineOpen, 0, "", "", "", `{"sid":"a"}`},
		{"ping", "2", EnginePing, 0, "", "", "", ""},
		{"connect root", `40{"sid":"b"}`, EngineMessage, SocketConnect, "/", "", "", `{"sid":"b"}`},
		{"connect ns", `40/aviator,{"sid":"b"}`, EngineMessage, SocketConnect, "/aviator", "", "", `{"sid":"b"}`},
		{"event ns", `42/roulette,["roulette_number",{"number":5}]`, EngineMessage, SocketEvent, "/roulette", "", "roulette_number", `{"number":5}`},
		{"event with ack", `42/aviator,17["round",{"game_id":"r1"}]`, EngineMessage, SocketEvent, "/aviator", "17", "round", `{"game_id":"r1"}`},
		{"event no args", `42["ping_me"]`, EngineMessage, SocketEvent, "/", "", "ping_me", ""},
		{"disconnect", `41/spaceman,`, EngineMessage, SocketDisconnect, "/spaceman", "", "", ""},
		{"connect error", `44/aviator,{"message":"bad token"}`, EngineMessage, SocketConnectError, "/aviator", "", "", `{"message":"bad token"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.raw, err)
			}
			if p.EngineType != tt.engine || p.SocketType != tt.socket {
				t.Errorf("types = %c/%c, want %c/%c", p.EngineType, p.SocketType, tt.engine, tt.socket)
			}
			if p.Namespace != tt.namespace || p.AckID != tt.ackID || p.Event != tt.event {
				t.Errorf("Decode() = ns %q ack %q event %q", p.Namespace, p.AckID, p.Event)
			}
			if string(p.Data) != tt.data {
				t.Errorf("Data = %s, want %s", p.Data, tt.data)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, raw := range []string{"", "4", `451-["bin",{"_placeholder":true,"num":0}]`, `42/aviator,{"not":"array"}`, `42[]`} {
		if _, err := Decode(raw); err == nil {
			t.Errorf("Decode(%q) error = nil, want error", raw)
		}
	}
}

func TestEncode(t *testing.T) {
	got, err := EncodeConnect("/aviator", map[string]string{"token": "t"})
	if err != nil || got != `40/aviator,{"token":"t"}` {
		t.Errorf("EncodeConnect() = %q, %v", got, err)
	}
	got, err = EncodeEvent("/roulette", "subscribe_roulette", map[string]int{"bookmakerId": 3})
	if err != nil || got != `42/roulette,["subscribe_roulette",{"bookmakerId":3}]` {
		t.Errorf("EncodeEvent() = %q, %v", got, err)
	}
	got, _ = EncodeEvent("/", "hello", nil)
	if got != `42["hello"]` {
		t.Errorf("EncodeEvent(root) = %q", got)
	}
	if got := EncodeDisconnect("/spaceman"); got != "41/spaceman," {
		t.Errorf("EncodeDisconnect() = %q", got)
	}
}

func TestConnectError(t *testing.T) {
	p, _ := Decode(`44/aviator,{"message":"Authentication error"}`)
	if err := connectError(p); err.Error() != "Authentication error" {
		t.Errorf("connectError() = %v", err)
	}
}
