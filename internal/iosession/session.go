// Package iosession owns the live connection to one drive: the TCP control
// socket, the shared UDP implicit-I/O socket, the two long-lived workers
// (cyclic sender and listener), and the handoff points between them and the
// caller's command-engine goroutine.
package iosession

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tturner/motordrive/internal/diagnostics"
	"github.com/tturner/motordrive/internal/driverrors"
	"github.com/tturner/motordrive/internal/enip"
	"github.com/tturner/motordrive/internal/handshake"
	"github.com/tturner/motordrive/internal/logging"
	"github.com/tturner/motordrive/internal/status"
	"github.com/tturner/motordrive/internal/transport"
	"github.com/tturner/motordrive/internal/wire"
)

// Options configures a Session. DriveIP and RPI are required; everything
// else has a sensible zero value.
type Options struct {
	DriveIP       string
	RPI           time.Duration
	OToTSize      int
	TToOSize      int
	MirrorOverTCP bool
	ListenPort    int
	AcceptAnyPeer bool
	ConnParams    handshake.ConnectionParams
	Logger        logging.Logger

	// CaptureFile, if non-empty, records every O->T and T->O datagram to a
	// pcapng file at this path for offline inspection. Empty disables
	// capture entirely; this is diagnostics, not the hot path.
	CaptureFile string

	// ControlPort and ImplicitPort override the TCP control port (default
	// 44818) and the UDP implicit-I/O peer port (default 2222). Tests point
	// these at loopback listeners on ephemeral ports; production leaves
	// both zero.
	ControlPort  int
	ImplicitPort int
}

const (
	backoffInitial = 200 * time.Millisecond
	backoffCap     = 2 * time.Second
	closeJoinBound = 2 * time.Second
	listenerPoll   = 1 * time.Second
)

// Session is a single drive connection: one TCP control socket and one
// shared UDP implicit-I/O socket, with a cyclic sender and a listener
// running against them.
type Session struct {
	opts Options
	log  logging.Logger

	tcp *transport.TCP
	udp *transport.UDP

	sessionHandle uint32
	connID        uint32

	payloadMu sync.Mutex
	payload   []byte

	saiSeq uint16
	ctpSeq uint16

	decoder *status.Decoder
	latest  atomic.Pointer[Snapshot]

	capture      *diagnostics.Recorder
	implicitPort int

	stopSender   chan struct{}
	senderDone   chan struct{}
	stopListener chan struct{}
}

// New constructs a Session. Connect must be called before it does anything.
func New(opts Options) *Session {
	if opts.OToTSize == 0 {
		opts.OToTSize = 44
	}
	if opts.TToOSize == 0 {
		opts.TToOSize = 44
	}
	log := logging.OrNop(opts.Logger)

	s := &Session{
		opts:    opts,
		log:     log,
		udp:     transport.NewUDP(opts.ListenPort, opts.AcceptAnyPeer),
		tcp:     transport.NewTCP(),
		decoder: status.NewDecoder(),
		payload: make([]byte, opts.OToTSize),
	}
	return s
}

// Connect performs the handshake (RegisterSession, ForwardOpen), binds the
// shared UDP socket, and starts the cyclic sender and listener workers.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.handshakeAndBind(ctx); err != nil {
		return driverrors.WrapHandshake(err, s.opts.DriveIP)
	}

	if s.opts.CaptureFile != "" && s.capture == nil {
		rec, err := diagnostics.NewRecorder(s.opts.CaptureFile)
		if err != nil {
			s.tcp.Close()
			s.udp.Close()
			return err
		}
		s.capture = rec
	}

	s.stopSender = make(chan struct{})
	s.senderDone = make(chan struct{})
	s.stopListener = make(chan struct{})

	go s.listenerLoop()
	go s.senderLoop()
	return nil
}

// handshakeAndBind runs RegisterSession + ForwardOpen over a fresh TCP
// connection and binds the UDP socket if it is not already bound.
func (s *Session) handshakeAndBind(ctx context.Context) error {
	port := s.opts.ControlPort
	if port == 0 {
		port = transport.ControlPort
	}
	if err := s.tcp.ConnectPort(ctx, s.opts.DriveIP, port); err != nil {
		return err
	}

	if err := s.tcp.Send(ctx, handshake.BuildRegisterSession()); err != nil {
		s.tcp.Close()
		return err
	}
	regReply, err := s.tcp.Receive(ctx, 5*time.Second)
	if err != nil {
		s.tcp.Close()
		return err
	}
	handle, err := handshake.ParseRegisterSessionReply(regReply)
	if err != nil {
		s.tcp.Close()
		return err
	}
	s.sessionHandle = handle

	template := handshake.BuildForwardOpenTemplate(s.opts.ConnParams)
	req := handshake.PatchSessionHandle(template, handle)
	if err := s.tcp.Send(ctx, req); err != nil {
		s.tcp.Close()
		return err
	}
	foReply, err := s.tcp.Receive(ctx, 5*time.Second)
	if err != nil {
		s.tcp.Close()
		return err
	}
	connID, err := handshake.ParseForwardOpenReply(foReply)
	if err != nil {
		s.tcp.Close()
		return err
	}
	s.connID = connID

	if !s.udp.IsBound() {
		if err := s.udp.Bind(); err != nil {
			s.tcp.Close()
			return err
		}
	}
	implicitPort := s.opts.ImplicitPort
	if implicitPort == 0 {
		implicitPort = transport.ImplicitPort
	}
	if err := s.udp.SetPeerPort(s.opts.DriveIP, implicitPort); err != nil {
		s.tcp.Close()
		return err
	}
	s.implicitPort = implicitPort
	s.log.Infof("iosession: connected to %s, session=0x%08X conn=0x%08X", s.opts.DriveIP, s.sessionHandle, s.connID)
	return nil
}

// Close stops both workers and releases the sockets. It joins the sender
// with a bounded timeout and stops the listener fire-and-forget, per the
// concurrency model's asymmetric shutdown contract.
func (s *Session) Close() error {
	if s.stopSender != nil {
		close(s.stopSender)
		select {
		case <-s.senderDone:
		case <-time.After(closeJoinBound):
			s.log.Warnf("iosession: cyclic sender did not stop within %s", closeJoinBound)
		}
	}
	if s.stopListener != nil {
		close(s.stopListener)
	}
	_ = s.tcp.Close()
	err := s.udp.Close()
	if s.capture != nil {
		if cerr := s.capture.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// UpdateApp replaces the current O->T payload under the same lock the
// sender uses. It right-pads with zeros and truncates to the configured
// O->T size, so callers may hand in payloads of any length.
func (s *Session) UpdateApp(app []byte) {
	s.payloadMu.Lock()
	defer s.payloadMu.Unlock()
	s.payload = wire.PadTruncate(app, s.opts.OToTSize)
}

// Decoder exposes the status decoder so the command engine can read
// in-position/ready/move without this package also having to re-implement
// those projections.
func (s *Session) Decoder() *status.Decoder {
	return s.decoder
}

// LatestSnapshot returns the most recent published T->O snapshot, or nil if
// nothing has been received yet.
func (s *Session) LatestSnapshot() *Snapshot {
	return s.latest.Load()
}

func (s *Session) senderLoop() {
	defer close(s.senderDone)
	rpi := s.opts.RPI
	if rpi <= 0 {
		rpi = 20 * time.Millisecond
	}
	ticker := time.NewTicker(rpi)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSender:
			return
		case <-ticker.C:
		}

		s.payloadMu.Lock()
		app := append([]byte(nil), s.payload...)
		s.payloadMu.Unlock()

		frame := enip.BuildOToTFrame(s.connID, s.saiSeq, s.ctpSeq, app)
		if err := s.udp.Send(frame); err != nil {
			s.log.Warnf("iosession: UDP send failed, entering recovery: %v", err)
			s.recover()
			continue
		}
		s.recordDatagram(frame, true)
		if s.opts.MirrorOverTCP {
			if err := s.tcp.Send(context.Background(), enip.BuildSendUnitData(s.sessionHandle, frame)); err != nil {
				s.log.Debugf("iosession: mirror send failed: %v", err)
			}
		}
		s.saiSeq = enip.NextSeq(s.saiSeq)
		s.ctpSeq = enip.NextSeq(s.ctpSeq)
	}
}

// recover tears down the TCP socket and current session state, then
// retries the handshake with exponential backoff until it succeeds or the
// sender is told to stop. Sequence counters are left untouched: monotonic
// within the process is good enough.
func (s *Session) recover() {
	_ = s.tcp.Close()
	s.sessionHandle = 0
	s.connID = 0

	delay := backoffInitial
	for {
		select {
		case <-s.stopSender:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.handshakeAndBind(ctx)
		cancel()
		if err == nil {
			s.log.Infof("iosession: reconnected to %s", s.opts.DriveIP)
			return
		}
		s.log.Debugf("iosession: reconnect attempt failed: %v", driverrors.WrapTransport(err, s.opts.DriveIP))

		select {
		case <-s.stopSender:
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > backoffCap {
			delay = backoffCap
		}
	}
}

func (s *Session) listenerLoop() {
	var count uint64
	for {
		select {
		case <-s.stopListener:
			return
		default:
		}

		raw, err := s.udp.Receive(listenerPoll)
		if err != nil {
			continue // timeout or transient read error: non-fatal, keep polling
		}
		s.recordDatagram(raw, false)
		app, ok := enip.ParseTToOFrame(raw)
		if !ok {
			continue
		}
		count++
		s.decoder.Update(app)
		s.latest.Store(&Snapshot{App: app, Raw: raw, At: time.Now(), Count: count})
	}
}

// recordDatagram appends one CPF datagram to the pcapng capture, if one was
// configured. outbound selects the direction: true for O->T (sender, local
// to drive), false for T->O (listener, drive to local).
func (s *Session) recordDatagram(frame []byte, outbound bool) {
	if s.capture == nil {
		return
	}
	local := s.udp.LocalAddr()
	driveIP := net.ParseIP(s.opts.DriveIP)
	if local == nil || driveIP == nil {
		return
	}
	localPort := local.Port
	implicitPort := s.implicitPort
	if implicitPort == 0 {
		implicitPort = transport.ImplicitPort
	}

	var err error
	if outbound {
		err = s.capture.Write(local.IP, driveIP, localPort, implicitPort, frame, time.Now())
	} else {
		err = s.capture.Write(driveIP, local.IP, implicitPort, localPort, frame, time.Now())
	}
	if err != nil {
		s.log.Debugf("iosession: capture write failed: %v", err)
	}
}

