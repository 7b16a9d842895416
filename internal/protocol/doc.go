// Package protocol defines the JSON signaling messages exchanged with clients
// and the application close codes.
//
// Inbound text frames are decoded into a closed set of message kinds. Signaling
// payloads (offer, answer, ice_candidate) are validated for presence only; their
// contents are never interpreted and the original bytes are what gets relayed.
package protocol
