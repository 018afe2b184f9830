package index

import (
	"encoding/json"
	"log/slog"
	"runtime"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// ipcAddress is where the cross-process cache publisher binds its REP
// socket and where clients dial their REQ socket. Unix builds use a
// filesystem IPC endpoint; everything else falls back to a loopback TCP
// port, matching the two addresses the faster-outlines project's cache
// service binds.
func ipcAddress() string {
	if runtime.GOOS == "windows" {
		return "tcp://127.0.0.1:5555"
	}
	return "ipc:///tmp/faster-outlines-cache.ipc"
}

// wireIndex is the JSON-over-the-wire shape for a CachedIndex,
// independent of the in-memory map representation so the format does
// not depend on Go map iteration order.
type wireIndex struct {
	Fingerprint uint64              `json:"fingerprint"`
	FirstState  uint32              `json:"first_state"`
	Finals      []uint32            `json:"finals"`
	Maps        []map[uint32]uint32 `json:"maps"`
}

// ipcClient best-effort publishes completed builds to a peer cache
// service over ZeroMQ REQ/REP so that multiple processes sharing a
// machine (e.g. several model-serving workers) can skip rebuilding an
// index another process already computed. Publishing never blocks a
// build's completion: failures (no service listening, timeout) are
// logged at debug level and otherwise ignored.
type ipcClient struct {
	logger *slog.Logger
}

// EnableIPC turns on best-effort cross-process publishing for c. Safe
// to call even when no peer service is listening; every publish attempt
// is fire-and-forget with a short timeout.
func (c *Cache) EnableIPC(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.ipc = &ipcClient{logger: logger}
}

func (ic *ipcClient) publish(ci *CachedIndex) {
	sock, err := zmq.NewSocket(zmq.REQ)
	if err != nil {
		ic.logger.Debug("ipc cache publish: socket create failed", "err", err)
		return
	}
	defer sock.Close()

	if err := sock.SetSndtimeo(250 * time.Millisecond); err != nil {
		ic.logger.Debug("ipc cache publish: set send timeout failed", "err", err)
		return
	}
	if err := sock.SetRcvtimeo(250 * time.Millisecond); err != nil {
		ic.logger.Debug("ipc cache publish: set recv timeout failed", "err", err)
		return
	}
	if err := sock.Connect(ipcAddress()); err != nil {
		ic.logger.Debug("ipc cache publish: connect failed", "err", err)
		return
	}

	payload, err := json.Marshal(toWire(ci))
	if err != nil {
		ic.logger.Debug("ipc cache publish: marshal failed", "err", err)
		return
	}
	if _, err := sock.SendBytes(payload, 0); err != nil {
		ic.logger.Debug("ipc cache publish: send failed", "err", err)
		return
	}
	if _, err := sock.RecvBytes(0); err != nil {
		ic.logger.Debug("ipc cache publish: no reply", "err", err)
	}
}

// ipcServer is the receiving side: it binds a REP socket, accepts
// published CachedIndex payloads, and inserts each into a local Cache.
// Intended for a sidecar process that several short-lived workers share
// a machine-local cache through.
type ipcServer struct {
	cache  *Cache
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewIPCServer starts a background goroutine serving the cross-process
// cache protocol, inserting every received index into cache. Call Stop
// to shut it down and release the bound socket.
func NewIPCServer(cache *Cache, logger *slog.Logger) (*ipcServer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sock, err := zmq.NewSocket(zmq.REP)
	if err != nil {
		return nil, &IndexError{Kind: InternalInvariant, Message: "ipc server: socket create failed", Cause: err}
	}
	if err := sock.SetRcvtimeo(100 * time.Millisecond); err != nil {
		sock.Close()
		return nil, &IndexError{Kind: InternalInvariant, Message: "ipc server: set recv timeout failed", Cause: err}
	}
	if err := sock.Bind(ipcAddress()); err != nil {
		sock.Close()
		return nil, &IndexError{Kind: InternalInvariant, Message: "ipc server: bind failed", Cause: err}
	}

	s := &ipcServer{cache: cache, logger: logger, stop: make(chan struct{}), done: make(chan struct{})}
	go s.serve(sock)
	return s, nil
}

func (s *ipcServer) serve(sock *zmq.Socket) {
	defer close(s.done)
	defer sock.Close()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		msg, err := sock.RecvBytes(0)
		if err != nil {
			continue // timeout or transient error; keep polling
		}
		var w wireIndex
		if err := json.Unmarshal(msg, &w); err != nil {
			s.logger.Warn("ipc server: malformed payload", "err", err)
			sock.Send("error", 0)
			continue
		}
		s.cache.Insert(fromWire(&w))
		sock.Send("ok", 0)
	}
}

// Stop halts the server goroutine and releases its bound socket.
func (s *ipcServer) Stop() {
	close(s.stop)
	<-s.done
}

func toWire(ci *CachedIndex) wireIndex {
	return wireIndex{
		Fingerprint: ci.Fingerprint,
		FirstState:  ci.FirstState,
		Finals:      ci.Finals,
		Maps:        ci.Maps,
	}
}

func fromWire(w *wireIndex) *CachedIndex {
	return &CachedIndex{
		Fingerprint: w.Fingerprint,
		FirstState:  w.FirstState,
		Finals:      w.Finals,
		Maps:        w.Maps,
	}
}
