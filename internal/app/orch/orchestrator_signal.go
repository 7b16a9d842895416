package orch

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/app"
	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/protocol"
)

// OnText routes one inbound text frame. It never closes the sender; a bad
// message is answered with a warning or dropped.
func (o *Orchestrator) OnText(conn core.SignalConnection, data []byte) {
	defer o.recoverMessage(conn)

	// A superseded socket keeps its session record until its own close
	// handler runs; nothing it still sends is routed.
	if conn.State() != core.ConnOpen {
		return
	}
	sess, ok := o.Registry.Session(conn.ID())
	if !ok || sess.State.Terminal() {
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		o.Metrics.Received("malformed")
		log.Warn().Err(err).Str("module", "orch.signal").Str("conn", string(conn.ID())).Msg("bad message")
		o.send(conn, protocol.WarningFor("invalid message format", err))
		return
	}
	o.Metrics.Received(msg.Kind.String())

	switch msg.Kind {
	case protocol.KindPing:
		o.send(conn, protocol.PongFor(msg.Timestamp))
	case protocol.KindUserInfo:
		o.Registry.SetInfo(conn.ID(), msg.Info)
		log.Info().
			Str("module", "orch.signal").
			Str("user", string(sess.User)).
			Str("username", msg.Info.Username).
			Str("language", msg.Info.Language).
			Msg("user info")
	case protocol.KindOffer, protocol.KindAnswer, protocol.KindICECandidate:
		o.relay(sess, msg)
	default:
		log.Debug().Str("module", "orch.signal").Str("user", string(sess.User)).Str("type", msg.Type).Msg("unknown message type")
	}
}

func (o *Orchestrator) relay(sess core.Session, msg protocol.Message) {
	logger := log.With().
		Str("module", "orch.signal").
		Str("user", string(sess.User)).
		Str("room", string(sess.Room)).
		Str("type", msg.Type).
		Logger()

	if !msg.Valid() {
		o.Metrics.Dropped("missing_field")
		logger.Debug().Msg("signaling message without payload dropped")
		return
	}
	if ci, ok := msg.ICECandidate(); ok && ci.SDPMid != nil {
		logger = logger.With().Str("sdp_mid", *ci.SDPMid).Logger()
	}

	peer, ok := o.Rooms.PeerOf(sess.Room, sess.User)
	if !ok || peer.State() != core.ConnOpen {
		o.Metrics.Dropped("no_peer")
		logger.Debug().Msg("no open peer, message dropped")
		return
	}

	err := peer.TrySend(msg.Raw)
	switch {
	case err == nil:
		o.Metrics.Relayed(msg.Kind.String())
		logger.Debug().Str("peer_conn", string(peer.ID())).Msg("relayed")
	case errors.Is(err, core.ErrBackpressure):
		o.Metrics.Dropped("backpressure")
		logger.Warn().Str("peer_conn", string(peer.ID())).Msg("peer send buffer full")
		if o.Policy != nil && o.Policy.OnBackPressure(sess.Room, peer) == app.KickPeer {
			peer.CloseWith(protocol.CloseBackpressure, protocol.ReasonBackpressure)
		}
	default:
		o.Metrics.Dropped("peer_closed")
		logger.Debug().Err(err).Msg("peer unavailable, message dropped")
	}
}

// OnBinary counts an opaque frame and hands it to the session's upstream
// pipe when one is attached.
func (o *Orchestrator) OnBinary(conn core.SignalConnection, data []byte) {
	defer o.recoverMessage(conn)

	o.Metrics.Binary(len(data))
	if conn.State() != core.ConnOpen {
		return
	}
	sess, ok := o.Registry.Session(conn.ID())
	if !ok || sess.State.Terminal() {
		return
	}
	if sess.Upstream == nil {
		log.Debug().Str("module", "orch.signal").Str("user", string(sess.User)).Int("bytes", len(data)).Msg("binary frame")
		return
	}
	if err := sess.Upstream.Send(data); err != nil {
		o.Metrics.Dropped("upstream")
		log.Warn().Err(err).Str("module", "orch.signal").Str("user", string(sess.User)).Msg("upstream send failed")
	}
}

// AttachUpstream binds an open upstream pipe to the connection's session.
// The pipe is closed if the session is already gone.
func (o *Orchestrator) AttachUpstream(conn core.SignalConnection, p core.Pipe) bool {
	if !o.Registry.AttachUpstream(conn.ID(), p) {
		p.Close()
		return false
	}
	return true
}

// OnUpstreamFailure closes the client whose upstream peer failed.
func (o *Orchestrator) OnUpstreamFailure(conn core.SignalConnection, err error) {
	log.Error().Err(err).Str("module", "orch.signal").Str("conn", string(conn.ID())).Msg("upstream relay failed")
	conn.CloseWith(protocol.CloseUpstreamError, protocol.ReasonUpstreamError)
}

func (o *Orchestrator) recoverMessage(conn core.SignalConnection) {
	if r := recover(); r != nil {
		o.Metrics.Panicked()
		log.Error().Interface("panic", r).Str("module", "orch.signal").Str("conn", string(conn.ID())).Msg("message handler panic recovered")
	}
}
