package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

const (
	frameBuffer       = 256
	writeWait         = 10 * time.Second
	defaultPingWindow = 45 * time.Second
)

// ErrNotConnected is returned by Emit while the namespace is not joined.
var ErrNotConnected = errors.New("transport not connected")

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client is one reconnecting Socket.IO connection bound to a namespace.
type Client struct {
	Config    models.MWebsocketConfig
	Namespace string
	Logger    *logger.Logger

	creds   interfaces.ICredentials
	proxies interfaces.IProxyManager
	dialer  *websocket.Dialer

	frames    chan models.MFrame
	done      chan struct{}
	connected atomic.Bool

	mu      sync.Mutex
	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// NewClient builds a client for namespace. proxies may be nil.
func NewClient(cfg models.MWebsocketConfig, namespace string, creds interfaces.ICredentials, proxies interfaces.IProxyManager, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewLogger(nil, "Transport"+namespace)
	}
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: time.Duration(cfg.HandshakeTimeout) * time.Second,
	}
	if proxies != nil && proxies.HasProxies() {
		dialer.Proxy = proxies.ProxyFunc()
	}
	return &Client{
		Config:    cfg,
		Namespace: namespace,
		Logger:    log,
		creds:     creds,
		proxies:   proxies,
		dialer:    dialer,
		frames:    make(chan models.MFrame, frameBuffer),
		done:      make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return helpers.ErrSubscriptionClosed
	}
	if c.started {
		return errors.New("transport already started")
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	go c.run(c.ctx)
	return nil
}

func (c *Client) Frames() <-chan models.MFrame {
	return c.frames
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

// -----------------------------------------------------------------------------

// Emit writes one event on the namespace.
func (c *Client) Emit(event string, payload interface{}) error {
	msg, err := EncodeEvent(c.Namespace, event, payload)
	if err != nil {
		return err
	}
	if !c.connected.Load() {
		return helpers.NewTransportError("emit "+event, ErrNotConnected)
	}
	return c.write(msg)
}

func (c *Client) write(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return helpers.NewTransportError("write", ErrNotConnected)
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return helpers.NewTransportError("write", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Close leaves the namespace and stops the reconnect loop.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	conn := c.conn
	c.mu.Unlock()

	if !started {
		close(c.frames)
		return nil
	}
	if conn != nil && c.connected.Load() {
		c.write(EncodeDisconnect(c.Namespace))
	}
	c.cancel()
	<-c.done
	return nil
}

// -----------------------------------------------------------------------------
// Run loop
// -----------------------------------------------------------------------------

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.frames)

	backoff := helpers.Backoff{
		Min:         time.Duration(c.Config.ReconnectMinMs) * time.Millisecond,
		Max:         time.Duration(c.Config.ReconnectMaxMs) * time.Millisecond,
		MaxAttempts: c.Config.MaxReconnectAttempts,
	}

	for {
		joined, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if joined {
			backoff.Reset()
		}

		delay, ok := backoff.Next()
		if !ok {
			c.Logger.Error("Giving up on %s after %d attempts: %v", c.Namespace, backoff.Attempt(), err)
			c.push(ctx, models.MFrame{Kind: models.FrameConnectError, Err: fmt.Errorf("reconnect attempts exhausted: %w", err)})
			return
		}
		c.Logger.Info("Reconnecting %s in %v (attempt %d)", c.Namespace, delay, backoff.Attempt())
		if !joined && c.proxies != nil && c.proxies.HasProxies() {
			c.proxies.RotateProxy()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// session runs one connection from dial to drop. It reports whether the
// namespace was joined at some point.
func (c *Client) session(ctx context.Context) (bool, error) {
	token, err := c.creds.Token()
	if err != nil {
		c.push(ctx, models.MFrame{Kind: models.FrameConnectError, Err: err})
		return false, err
	}

	endpoint, err := c.endpoint()
	if err != nil {
		c.push(ctx, models.MFrame{Kind: models.FrameConnectError, Err: err})
		return false, err
	}

	header := http.Header{}
	if c.proxies != nil {
		header.Set("User-Agent", c.proxies.GetUserAgent())
	}
	conn, _, err := c.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		err = helpers.NewTransportError("dial "+c.Namespace, err)
		c.push(ctx, models.MFrame{Kind: models.FrameConnectError, Err: err})
		return false, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	window, err := c.handshake(conn, token)
	if err != nil {
		conn.Close()
		c.push(ctx, models.MFrame{Kind: models.FrameConnectError, Err: err})
		return false, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	joined, err := c.readLoop(ctx, conn, window)

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	conn.Close()

	if c.connected.Swap(false) && ctx.Err() == nil {
		c.Logger.Warning("Disconnected from %s: %v", c.Namespace, err)
		c.push(ctx, models.MFrame{Kind: models.FrameDisconnected, Err: err})
	}
	return joined, err
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.Config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	path := c.Config.Path
	if path == "" {
		path = "/socket.io/"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// handshake reads the Engine.IO open packet and requests the namespace. It
// returns the liveness window derived from the ping settings.
func (c *Client) handshake(conn *websocket.Conn, token string) (time.Duration, error) {
	timeout := time.Duration(c.Config.HandshakeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn.SetReadDeadline(time.Now().Add(timeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, helpers.NewTransportError("read open packet", err)
	}
	p, err := Decode(string(msg))
	if err != nil || p.EngineType != EngineOpen {
		return 0, helpers.NewTransportError("unexpected open packet "+string(msg), err)
	}

	var info OpenInfo
	if err := jsonUnmarshal(p.Data, &info); err != nil {
		return 0, helpers.NewTransportError("decode open packet", err)
	}
	window := time.Duration(info.PingInterval+info.PingTimeout) * time.Millisecond
	if window <= 0 {
		window = defaultPingWindow
	}

	connect, err := EncodeConnect(c.Namespace, map[string]string{"token": token})
	if err != nil {
		return 0, err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(connect)); err != nil {
		return 0, helpers.NewTransportError("namespace connect", err)
	}
	return window, nil
}

// -----------------------------------------------------------------------------

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, window time.Duration) (bool, error) {
	joined := false
	for {
		conn.SetReadDeadline(time.Now().Add(window))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return joined, helpers.NewTransportError("read", err)
		}

		p, err := Decode(string(msg))
		if err != nil {
			c.Logger.Debug("Dropping frame on %s: %v", c.Namespace, err)
			continue
		}

		switch p.EngineType {
		case EnginePing:
			if err := c.write(string(EnginePong)); err != nil {
				return joined, err
			}
			continue
		case EngineClose:
			return joined, helpers.NewTransportError("server closed engine", nil)
		case EngineMessage:
		default:
			continue
		}

		if p.Namespace != nsOrRoot(c.Namespace) {
			continue
		}
		switch p.SocketType {
		case SocketConnect:
			joined = true
			c.connected.Store(true)
			c.Logger.Info("Joined namespace %s", c.Namespace)
			c.push(ctx, models.MFrame{Kind: models.FrameConnected})
		case SocketConnectError:
			err := helpers.NewTransportError("namespace "+c.Namespace+" refused", connectError(p))
			c.push(ctx, models.MFrame{Kind: models.FrameConnectError, Err: err})
			return joined, err
		case SocketDisconnect:
			return joined, helpers.NewTransportError("server disconnected namespace "+c.Namespace, nil)
		case SocketEvent:
			c.push(ctx, models.MFrame{Kind: models.FrameEvent, Event: p.Event, Payload: []byte(p.Data)})
		}
	}
}

// push delivers a frame in order, giving up only when the client stops.
func (c *Client) push(ctx context.Context, f models.MFrame) {
	select {
	case c.frames <- f:
	case <-ctx.Done():
	}
}

func nsOrRoot(ns string) string {
	if ns == "" {
		return "/"
	}
	return ns
}
