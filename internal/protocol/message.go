package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/dkeye/voicepair/internal/domain"
)

const (
	TypeICECandidate        = "ice_candidate"
	TypePing                = "ping"
	TypePong                = "pong"
	TypeUserInfo            = "user_info"
	TypeWaitingForPartner   = "waiting_for_partner"
	TypePartnerFound        = "partner_found"
	TypePartnerDisconnected = "partner_disconnected"
	TypeWarning             = "warning"
)

var (
	ErrMalformed = errors.New("malformed payload")
	ErrNotObject = errors.New("payload is not an object")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindOffer
	KindAnswer
	KindICECandidate
	KindPing
	KindUserInfo
)

func (k Kind) String() string {
	switch k {
	case KindOffer:
		return "offer"
	case KindAnswer:
		return "answer"
	case KindICECandidate:
		return TypeICECandidate
	case KindPing:
		return TypePing
	case KindUserInfo:
		return TypeUserInfo
	default:
		return "unknown"
	}
}

// Signaling reports whether messages of this kind are relayed to the peer.
func (k Kind) Signaling() bool {
	return k == KindOffer || k == KindAnswer || k == KindICECandidate
}

// Message is a decoded inbound text frame.
type Message struct {
	Kind Kind
	// Type is the tag exactly as sent by the client.
	Type      string
	SDP       json.RawMessage
	Candidate json.RawMessage
	Timestamp json.RawMessage
	Info      *domain.UserInfo
	// Raw holds the frame as received; relays forward it unchanged.
	Raw []byte
}

type envelope struct {
	Type      string          `json:"type"`
	SDP       json.RawMessage `json:"sdp"`
	Candidate json.RawMessage `json:"candidate"`
	Timestamp json.RawMessage `json:"timestamp"`
	Username  json.RawMessage `json:"username"`
	Language  json.RawMessage `json:"language"`
}

// text returns a JSON string field, or "" for any other value.
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Decode classifies a text frame. Only structural problems are errors;
// an unknown tag decodes to KindUnknown.
func Decode(data []byte) (Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Message{}, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return Message{}, fmt.Errorf("%w: invalid json", ErrMalformed)
		}
		return Message{}, ErrNotObject
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m := Message{Type: env.Type, Raw: data}
	switch env.Type {
	case TypeICECandidate:
		m.Kind = KindICECandidate
		m.Candidate = env.Candidate
	case TypePing:
		m.Kind = KindPing
		m.Timestamp = env.Timestamp
	case TypeUserInfo:
		m.Kind = KindUserInfo
		info := &domain.UserInfo{Language: text(env.Language), Raw: data}
		info.SetUsername(text(env.Username))
		m.Info = info
	default:
		switch webrtc.NewSDPType(env.Type) {
		case webrtc.SDPTypeOffer:
			m.Kind = KindOffer
			m.SDP = env.SDP
		case webrtc.SDPTypeAnswer:
			m.Kind = KindAnswer
			m.SDP = env.SDP
		default:
			m.Kind = KindUnknown
		}
	}
	return m, nil
}

// Valid reports whether a signaling message carries its required field.
// Non-signaling kinds are always valid.
func (m Message) Valid() bool {
	switch m.Kind {
	case KindOffer, KindAnswer:
		return present(m.SDP)
	case KindICECandidate:
		return present(m.Candidate)
	default:
		return true
	}
}

// ICECandidate extracts the candidate in its browser shape, for logging.
// A bare string candidate is accepted too.
func (m Message) ICECandidate() (webrtc.ICECandidateInit, bool) {
	var ci webrtc.ICECandidateInit
	if m.Kind != KindICECandidate || !present(m.Candidate) {
		return ci, false
	}
	raw := bytes.TrimSpace(m.Candidate)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &ci.Candidate); err != nil {
			return ci, false
		}
		return ci, true
	}
	if err := json.Unmarshal(raw, &ci); err != nil {
		return ci, false
	}
	return ci, true
}

// present accepts a non-blank string or a non-empty object.
func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return strings.TrimSpace(s) != ""
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return false
		}
		return len(obj) > 0
	default:
		return false
	}
}
