package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	logpkg "github.com/SKYGOD07/Arjuna-Project/internal/logger"
	"github.com/SKYGOD07/Arjuna-Project/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultConnections is the number of frames a detector keeps in flight at once
const DefaultConnections = 4

// detectResponse is the inference sidecar's reply to one binary frame
type detectResponse struct {
	Detections []models.Candidate `json:"detections"`
	Error      string             `json:"error,omitempty"`
}

// WebSocketDetector sends frames to an inference sidecar over a small pool of websockets.
// Each in-flight frame owns one connection for its request/reply exchange. Broken
// connections are closed and replaced by a fresh dial on a later call.
type WebSocketDetector struct {
	url          string
	dialer       *websocket.Dialer
	writeTimeout time.Duration
	readTimeout  time.Duration
	logger       *zap.Logger

	slots chan struct{}
	idle  chan *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// WebSocketOption configures a WebSocketDetector
type WebSocketOption func(*WebSocketDetector)

// WithConnections caps the number of concurrent sidecar connections
func WithConnections(n int) WebSocketOption {
	return func(d *WebSocketDetector) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
			d.idle = make(chan *websocket.Conn, n)
		}
	}
}

// NewWebSocketDetector creates a detector for the sidecar at url (ws:// or wss://)
func NewWebSocketDetector(url string, readTimeout time.Duration, logger *zap.Logger, opts ...WebSocketOption) *WebSocketDetector {
	if readTimeout <= 0 {
		readTimeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &WebSocketDetector{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		writeTimeout: 5 * time.Second,
		readTimeout:  readTimeout,
		logger:       logger,
		slots:        make(chan struct{}, DefaultConnections),
		idle:         make(chan *websocket.Conn, DefaultConnections),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ConnectInBackground dials one connection without blocking startup; failures are retried on demand
func (d *WebSocketDetector) ConnectInBackground(ctx context.Context) {
	go func() {
		release, err := d.acquire(ctx)
		if err != nil {
			return
		}
		defer release()

		conn, err := d.dial(ctx)
		if err != nil {
			d.logger.Warn("detector_initial_connect_failed", zap.String("url", d.url), zap.Error(err))
			return
		}
		d.put(conn)
		d.logger.Info("detector_connected", zap.String("url", d.url))
	}()
}

// acquire waits for a free slot or for ctx to end
func (d *WebSocketDetector) acquire(ctx context.Context) (func(), error) {
	select {
	case d.slots <- struct{}{}:
		return func() { <-d.slots }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for detector connection: %w", ctx.Err())
	}
}

func (d *WebSocketDetector) dial(ctx context.Context) (*websocket.Conn, error) {
	if d.url == "" {
		return nil, errors.New("detector URL not configured")
	}
	conn, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to detector at %s: %w", d.url, err)
	}
	return conn, nil
}

// get returns an idle connection or dials a new one. The caller must hold a slot.
func (d *WebSocketDetector) get(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-d.idle:
		return conn, nil
	default:
		return d.dial(ctx)
	}
}

// put returns a healthy connection to the idle set
func (d *WebSocketDetector) put(conn *websocket.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		_ = conn.Close()
		return
	}
	select {
	case d.idle <- conn:
	default:
		_ = conn.Close()
	}
}

func (d *WebSocketDetector) deadline(ctx context.Context, timeout time.Duration) time.Time {
	dl := time.Now().Add(timeout)
	if ctxDL, ok := ctx.Deadline(); ok && ctxDL.Before(dl) {
		return ctxDL
	}
	return dl
}

// Detect sends frame as a binary message and waits for the sidecar's JSON reply
func (d *WebSocketDetector) Detect(ctx context.Context, frame []byte) ([]models.Candidate, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// skip the write once the caller has given up
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := d.get(ctx)
	if err != nil {
		return nil, err
	}

	message, err := d.exchange(ctx, conn, frame)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	d.put(conn)

	var resp detectResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detector response: %w", err)
	}
	if resp.Error != "" {
		d.logger.Warn("detector_reported_error", zap.String("error", logpkg.SanitizeErrorString(resp.Error)))
		return nil, fmt.Errorf("detector error: %s", logpkg.SanitizeErrorString(resp.Error))
	}

	return resp.Detections, nil
}

// exchange writes one frame and reads one reply on conn
func (d *WebSocketDetector) exchange(ctx context.Context, conn *websocket.Conn, frame []byte) ([]byte, error) {
	if err := conn.SetWriteDeadline(d.deadline(ctx, d.writeTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("failed to send frame: %w", err)
	}

	if err := conn.SetReadDeadline(d.deadline(ctx, d.readTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read detector response: %w", err)
	}
	return message, nil
}

// Ping verifies the sidecar is reachable, dialing if needed
func (d *WebSocketDetector) Ping(ctx context.Context) error {
	release, err := d.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	conn, err := d.get(ctx)
	if err != nil {
		return err
	}
	if err := conn.WriteControl(websocket.PingMessage, nil, d.deadline(ctx, d.writeTimeout)); err != nil {
		_ = conn.Close()
		return fmt.Errorf("detector ping failed: %w", err)
	}
	d.put(conn)
	return nil
}

// Close closes idle sidecar connections. Connections still in flight are closed when they return.
func (d *WebSocketDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for {
		select {
		case conn := <-d.idle:
			_ = conn.Close()
		default:
			return nil
		}
	}
}
