package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicepair/internal/app"
	"github.com/dkeye/voicepair/internal/core"
	"github.com/dkeye/voicepair/internal/domain"
	"github.com/dkeye/voicepair/internal/protocol"
)

// Accept runs the handshake for a freshly upgraded connection and returns the
// state it ends in: StateWaitingForPeer, StatePaired or StateRejected.
// A rejected connection has already been asked to close.
func (o *Orchestrator) Accept(conn core.SignalConnection, rawUser, rawRoom string) core.SessionState {
	logger := log.With().Str("module", "orch").Str("conn", string(conn.ID())).Logger()

	uid, uerr := domain.ParseUserID(rawUser)
	rid, rerr := domain.ParseRoomID(rawRoom)
	if uerr != nil || rerr != nil {
		logger.Warn().AnErr("user_err", uerr).AnErr("room_err", rerr).Msg("handshake rejected: missing identifier")
		o.Metrics.Handshake("missing_identity")
		conn.CloseWith(protocol.CloseMissingIdentity, protocol.ReasonMissingIdentity)
		return core.StateRejected
	}
	logger = logger.With().Str("user", string(uid)).Str("room", string(rid)).Logger()

	if o.Limiter != nil && !o.Limiter.Allow(uid) {
		logger.Warn().Msg("handshake rejected: rate limited")
		o.Metrics.Handshake("rate_limited")
		conn.CloseWith(protocol.CloseRateLimited, protocol.ReasonRateLimited)
		return core.StateRejected
	}

	unlock := o.users.lock(uid)
	defer unlock()

	o.Registry.Bind(conn, uid, rid)
	o.Metrics.ConnectionOpened()
	o.Registry.Register(uid, conn)

	res := o.Rooms.Join(rid, uid, conn, func(res app.JoinResult) {
		o.announceJoin(conn, uid, rid, res)
	})
	o.Metrics.SetRooms(o.Rooms.Count())

	switch res.Outcome {
	case app.JoinRejectedFull, app.JoinRejectedDuplicate:
		code, reason := protocol.CloseRoomFull, protocol.ReasonRoomFull
		if res.Outcome == app.JoinRejectedDuplicate {
			code, reason = protocol.CloseDuplicate, protocol.ReasonDuplicate
		}
		o.Registry.SetState(conn.ID(), core.StateRejected)
		o.Registry.Unregister(uid, conn)
		o.Registry.Unbind(conn.ID())
		o.Metrics.ConnectionClosed()
		o.Metrics.Handshake(res.Outcome.String())
		conn.CloseWith(code, reason)
		logger.Info().Str("outcome", res.Outcome.String()).Msg("handshake rejected")
		return core.StateRejected
	case app.JoinPaired:
		o.Metrics.Handshake("accepted")
		logger.Info().Str("partner", string(res.PeerUser)).Bool("refreshed", res.Refreshed).Msg("session paired")
		return core.StatePaired
	default:
		o.Metrics.Handshake("accepted")
		logger.Info().Bool("refreshed", res.Refreshed).Msg("session waiting for partner")
		return core.StateWaitingForPeer
	}
}

// announceJoin runs under the room lock.
func (o *Orchestrator) announceJoin(conn core.SignalConnection, uid domain.UserID, rid domain.RoomID, res app.JoinResult) {
	switch res.Outcome {
	case app.JoinWaiting:
		o.Registry.SetState(conn.ID(), core.StateWaitingForPeer)
		if res.Refreshed {
			return
		}
		o.send(conn, protocol.WaitingForPartner(uid, rid))
	case app.JoinPaired:
		o.Registry.SetState(conn.ID(), core.StatePaired)
		if res.Refreshed {
			return
		}
		o.Registry.SetState(res.PeerConn.ID(), core.StatePaired)
		o.Metrics.Paired()
		o.send(conn, protocol.PartnerFound(uid, res.PeerUser, rid))
		o.send(res.PeerConn, protocol.PartnerFound(res.PeerUser, uid, rid))
	}
}

// OnClose tears a connection down. It is safe to call more than once and for
// connections that were rejected during the handshake.
func (o *Orchestrator) OnClose(conn core.SignalConnection) {
	sess, ok := o.Registry.Session(conn.ID())
	if !ok {
		return
	}
	unlock := o.users.lock(sess.User)
	defer unlock()
	o.Registry.SetState(conn.ID(), core.StateClosed)

	res := o.Rooms.Leave(sess.Room, sess.User, conn, func(res app.LeaveResult) {
		if res.Outcome != app.LeavePeerNotified {
			return
		}
		o.Registry.SetState(res.RemainingConn.ID(), core.StateWaitingForPeer)
		o.send(res.RemainingConn, protocol.PartnerDisconnected(res.RemainingUser, sess.User, sess.Room))
	})
	o.Registry.Unregister(sess.User, conn)
	if final, ok := o.Registry.Unbind(conn.ID()); ok {
		o.Metrics.ConnectionClosed()
		if final.Upstream != nil {
			final.Upstream.Close()
		}
	}
	o.Metrics.SetRooms(o.Rooms.Count())

	log.Info().
		Str("module", "orch").
		Str("conn", string(conn.ID())).
		Str("user", string(sess.User)).
		Str("room", string(sess.Room)).
		Str("leave", res.Outcome.String()).
		Msg("session closed")
}

// send is fire-and-forget; failures are logged and dropped.
func (o *Orchestrator) send(conn core.SignalConnection, frame []byte) {
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(conn.ID())).Msg("control message dropped")
	}
}
