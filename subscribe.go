package botcircuits

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/botcircuits/botcircuits-go-sdk/frame"
	"github.com/botcircuits/botcircuits-go-sdk/wire"
)

// drainTimeout bounds the stop/close writes on shutdown.
const drainTimeout = time.Second

// wsConn reads through the buffered reader returned by the dialer, which may
// already hold frames the server sent with the handshake response.
type wsConn struct {
	net.Conn
	r io.Reader
}

func (c wsConn) Read(p []byte) (int, error) { return c.r.Read(p) }

// realtimeEndpoint appends the encoded auth header and the empty payload to
// the realtime URL.
func (c *Client) realtimeEndpoint() (string, error) {
	token, err := frame.EncodeAuthHeader(frame.AuthHeader{
		Authorization: c.cfg.Credential,
		Host:          c.cfg.Host,
	})
	if err != nil {
		return "", err
	}
	u, err := url.Parse(c.cfg.RealtimeURL)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("header", token)
	q.Set("payload", frame.EmptyPayload)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) dial(ctx context.Context) (wsConn, error) {
	endpoint, err := c.realtimeEndpoint()
	if err != nil {
		return wsConn{}, err
	}
	d := ws.Dialer{
		Protocols: []string{frame.Subprotocol},
		Timeout:   c.cfg.DialTimeout,
	}
	conn, br, hs, err := d.Dial(ctx, endpoint)
	if err != nil {
		return wsConn{}, fmt.Errorf("dial: %w", err)
	}
	if hs.Protocol != frame.Subprotocol {
		c.log.Warn("server did not select sub-protocol", "want", frame.Subprotocol, "got", hs.Protocol)
	}
	wc := wsConn{Conn: conn, r: conn}
	if br != nil {
		wc.r = br
	}
	return wc, nil
}

// subscribe runs one subscription from dial to close. It returns nil when
// ctx is cancelled, a *ConnectError if the socket could not be set up and a
// *ChannelError if an established subscription broke.
func (c *Client) subscribe(ctx context.Context, s *subscription, h Handler) error {
	s.setState(StateConnecting)
	conn, err := c.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.setState(StateClosed)
			return nil
		}
		s.setState(StateFailed)
		return &ConnectError{Endpoint: c.cfg.RealtimeURL, Err: err}
	}
	defer conn.Close()

	// Cancellation unblocks a pending read; the loop notices ctx and drains.
	release := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer release()

	s.setState(StateHandshaking)
	if err := c.handshake(conn); err != nil {
		if ctx.Err() != nil {
			s.setState(StateClosed)
			return nil
		}
		s.setState(StateFailed)
		return &ConnectError{Endpoint: c.cfg.RealtimeURL, Err: err}
	}
	s.setState(StateSubscribed)
	close(s.subscribed)
	c.log.Info("subscribed to bot messages", "endpoint", c.cfg.RealtimeURL)

	err = c.receive(ctx, conn, h)
	if ctx.Err() != nil {
		s.setState(StateDraining)
		c.drain(conn)
		s.setState(StateClosed)
		return nil
	}
	s.setState(StateFailed)
	return &ChannelError{Err: err}
}

// handshake sends connection_init and the subscription start frame. The
// server's ack is not awaited.
func (c *Client) handshake(conn net.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.DialTimeout))
	defer conn.SetWriteDeadline(time.Time{})

	if err := writeFrame(conn, frame.ConnectionInit()); err != nil {
		return fmt.Errorf("send connection_init: %w", err)
	}

	payload, err := wire.NewStartPayload(c.cfg.AppID, c.sessionID, c.cfg.Credential, c.cfg.Host)
	if err != nil {
		return err
	}
	start, err := frame.Start(c.sessionID, payload)
	if err != nil {
		return err
	}
	if err := writeFrame(conn, start); err != nil {
		return fmt.Errorf("send start: %w", err)
	}
	return nil
}

// receive reads and dispatches frames until the socket fails or ctx is
// cancelled. Control frames (ping/close) are answered by wsutil.
func (c *Client) receive(ctx context.Context, rw io.ReadWriter, h Handler) error {
	for {
		data, _, err := wsutil.ReadServerData(rw)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f, err := frame.Decode(data)
		if err != nil {
			return err
		}
		c.dispatch(ctx, f, h)
	}
}

func (c *Client) dispatch(ctx context.Context, f frame.Frame, h Handler) {
	switch f.Kind() {
	case frame.KindData:
		body, err := wire.DecodeBotMessage(f.Payload)
		if err != nil {
			c.log.Warn("dropping undecodable bot message", "error", err)
			c.report(&DecodeError{Payload: f.Payload, Err: err})
			return
		}
		msg := Message{Type: MessageKind(body.Type), Content: body.Content}
		if !msg.Type.IsKnown() {
			c.log.Debug("bot message of unrecognised kind", "type", body.Type)
		}
		if err := h(ctx, msg); err != nil {
			c.log.Warn("message handler failed", "type", body.Type, "error", err)
		}

	case frame.KindConnectionError, frame.KindError:
		perr := &ProtocolError{Source: f.Type, Errors: wire.DecodeErrors(f.Payload)}
		c.log.Error("subscription error", "type", f.Type, "error", perr)
		c.report(perr)

	case frame.KindConnectionAck, frame.KindKeepAlive, frame.KindStartAck, frame.KindComplete:
		c.log.Debug("control frame", "type", f.Type)

	default:
		c.log.Debug("ignoring frame", "type", f.Type, "kind", f.Kind())
	}
}

// drain tells the server the subscription is over and closes the WebSocket
// cleanly. Failures are ignored; the socket is closed either way.
func (c *Client) drain(conn net.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(drainTimeout))
	if err := writeFrame(conn, frame.Stop(c.sessionID)); err != nil {
		c.log.Debug("send stop", "error", err)
		return
	}
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	if err := wsutil.WriteClientMessage(conn, ws.OpClose, body); err != nil {
		c.log.Debug("send close", "error", err)
	}
}

func writeFrame(w io.Writer, f frame.Frame) error {
	data, err := frame.Encode(f)
	if err != nil {
		return err
	}
	return wsutil.WriteClientText(w, data)
}
