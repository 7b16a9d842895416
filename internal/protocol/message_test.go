package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeKinds(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		kind  Kind
		valid bool
	}{
		{"offer", `{"type":"offer","sdp":"v=0\r\n"}`, KindOffer, true},
		{"offer object sdp", `{"type":"offer","sdp":{"type":"offer","sdp":"v=0"}}`, KindOffer, true},
		{"offer missing sdp", `{"type":"offer"}`, KindOffer, false},
		{"offer blank sdp", `{"type":"offer","sdp":"  "}`, KindOffer, false},
		{"offer null sdp", `{"type":"offer","sdp":null}`, KindOffer, false},
		{"answer", `{"type":"answer","sdp":"v=0"}`, KindAnswer, true},
		{"answer empty object", `{"type":"answer","sdp":{}}`, KindAnswer, false},
		{"candidate", `{"type":"ice_candidate","candidate":{"candidate":"candidate:1 1 udp 1 1.2.3.4 5 typ host","sdpMid":"0"}}`, KindICECandidate, true},
		{"candidate string", `{"type":"ice_candidate","candidate":"candidate:1"}`, KindICECandidate, true},
		{"candidate missing", `{"type":"ice_candidate"}`, KindICECandidate, false},
		{"ping", `{"type":"ping","timestamp":123}`, KindPing, true},
		{"user info", `{"type":"user_info","username":"ann"}`, KindUserInfo, true},
		{"user info object username", `{"type":"user_info","username":{"first":"x"},"language":7}`, KindUserInfo, true},
		{"offer with object username", `{"type":"offer","sdp":"v=0","username":{"first":"x"}}`, KindOffer, true},
		{"answer with numeric language", `{"type":"answer","sdp":"v=0","language":42}`, KindAnswer, true},
		{"candidate with array username", `{"type":"ice_candidate","candidate":"candidate:1","username":[1]}`, KindICECandidate, true},
		{"ping with object language", `{"type":"ping","timestamp":1,"language":{}}`, KindPing, true},
		{"unknown", `{"type":"dance"}`, KindUnknown, true},
		{"pranswer is unknown", `{"type":"pranswer","sdp":"v=0"}`, KindUnknown, true},
		{"no type", `{"sdp":"v=0"}`, KindUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if m.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", m.Kind, tt.kind)
			}
			if m.Valid() != tt.valid {
				t.Fatalf("valid = %v, want %v", m.Valid(), tt.valid)
			}
			if string(m.Raw) != tt.in {
				t.Fatalf("raw = %q, want original bytes", m.Raw)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrMalformed},
		{"{not json", ErrMalformed},
		{"hello", ErrMalformed},
		{"[1,2]", ErrNotObject},
		{`"str"`, ErrNotObject},
		{"null", ErrNotObject},
		{`{"type":5}`, ErrMalformed},
	}
	for _, tt := range tests {
		if _, err := Decode([]byte(tt.in)); !errors.Is(err, tt.want) {
			t.Fatalf("Decode(%q) err = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestICECandidateShape(t *testing.T) {
	m, _ := Decode([]byte(`{"type":"ice_candidate","candidate":{"candidate":"c1","sdpMid":"audio","sdpMLineIndex":0}}`))
	ci, ok := m.ICECandidate()
	if !ok {
		t.Fatal("expected candidate")
	}
	if ci.Candidate != "c1" || ci.SDPMid == nil || *ci.SDPMid != "audio" {
		t.Fatalf("unexpected candidate %+v", ci)
	}

	m, _ = Decode([]byte(`{"type":"ice_candidate","candidate":"c2"}`))
	ci, ok = m.ICECandidate()
	if !ok || ci.Candidate != "c2" {
		t.Fatalf("string candidate = %+v, %v", ci, ok)
	}
}

func TestPongEchoesTimestamp(t *testing.T) {
	for _, ts := range []string{`1712345678901`, `"opaque-ts"`, `{"t":1}`} {
		m, err := Decode([]byte(`{"type":"ping","timestamp":` + ts + `}`))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		var pong struct {
			Type      string          `json:"type"`
			Timestamp json.RawMessage `json:"timestamp"`
		}
		if err := json.Unmarshal(PongFor(m.Timestamp), &pong); err != nil {
			t.Fatalf("unmarshal pong: %v", err)
		}
		if pong.Type != TypePong || string(pong.Timestamp) != ts {
			t.Fatalf("pong = %+v, want timestamp %s", pong, ts)
		}
	}
}

func TestOutboundShapes(t *testing.T) {
	var p Partner
	if err := json.Unmarshal(PartnerFound("a1", "b1", "r1"), &p); err != nil {
		t.Fatal(err)
	}
	if p.Type != TypePartnerFound || p.UserID != "a1" || p.PartnerID != "b1" || p.RoomID != "r1" {
		t.Fatalf("partner_found = %+v", p)
	}

	var w Warning
	if err := json.Unmarshal(WarningFor("invalid message", ErrNotObject), &w); err != nil {
		t.Fatal(err)
	}
	if w.Type != TypeWarning || w.Error != ErrNotObject.Error() {
		t.Fatalf("warning = %+v", w)
	}

	var wait Waiting
	if err := json.Unmarshal(WaitingForPartner("a1", "r1"), &wait); err != nil {
		t.Fatal(err)
	}
	if wait.Type != TypeWaitingForPartner || wait.UserID != "a1" || wait.RoomID != "r1" {
		t.Fatalf("waiting = %+v", wait)
	}
}

func TestDecodeUserInfoFields(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		username string
		language string
	}{
		{"strings", `{"type":"user_info","username":"Ann","language":"ru"}`, "Ann", "ru"},
		{"object username", `{"type":"user_info","username":{"first":"x"},"language":"en"}`, "", "en"},
		{"numeric language", `{"type":"user_info","username":"Bo","language":7}`, "Bo", ""},
		{"absent", `{"type":"user_info"}`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if m.Info == nil {
				t.Fatal("missing info")
			}
			if m.Info.Username != tt.username || m.Info.Language != tt.language {
				t.Fatalf("info = %q/%q, want %q/%q", m.Info.Username, m.Info.Language, tt.username, tt.language)
			}
		})
	}
}
