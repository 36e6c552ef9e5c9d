package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lonng/dicebox/pkg/errutil"
	"github.com/lonng/dicebox/protocol"
	"github.com/pkg/errors"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
	outboundBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsConn struct {
	conn *websocket.Conn
	in   chan *protocol.Message
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{
		conn: conn,
		in:   make(chan *protocol.Message, inboundBuffer),
		out:  make(chan []byte, outboundBuffer),
		done: make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.write()
	go c.read()
	return c
}

// Dial connects to a physics world served by Handler
func Dial(ctx context.Context, url string) (Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	logger.Infof("connected to %s", url)
	return newWSConn(conn), nil
}

// Handler upgrades requests to websocket channels, accept is called once
// per connection
func Handler(accept func(Channel)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Errorf("upgrade %s: %v", r.RemoteAddr, err)
			return
		}
		logger.Infof("accepted world channel from %s", r.RemoteAddr)
		c := newWSConn(conn)
		accept(c)
		<-c.Done()
	}
}

func (c *wsConn) read() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warnf("read: %v", err)
			}
			return
		}
		msg := &protocol.Message{}
		if err := json.Unmarshal(data, msg); err != nil {
			logger.Warnf("drop malformed message: %v", err)
			continue
		}
		select {
		case c.in <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) write() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warnf("write: %v", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) Send(msg *protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "encode %s", msg.Action)
	}
	select {
	case <-c.done:
		return errutil.ErrTransportClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.done:
		return errutil.ErrTransportClosed
	}
}

func (c *wsConn) Inbound() <-chan *protocol.Message {
	return c.in
}

func (c *wsConn) Done() <-chan struct{} {
	return c.done
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}
