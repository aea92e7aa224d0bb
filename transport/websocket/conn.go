package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn - client socket with a buffered outbound queue drained by its write pump.
type Conn struct {
	id     string
	ws     *websocket.Conn
	conf   config.Websocket
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, conf config.Websocket, logger *slog.Logger) *Conn {
	id := pkg.GenerateConnectionID()

	return &Conn{
		id:     id,
		ws:     ws,
		conf:   conf,
		logger: logger.With("connID", id),

		send: make(chan []byte, conf.SendBuffer),
		done: make(chan struct{}),
	}
}

func (that *Conn) ID() string { return that.id }

// Send - enqueues data without blocking.
func (that *Conn) Send(data []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrConnClosed
	}

	select {
	case that.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close - stops the write pump, which sends a close frame and releases the socket.
func (that *Conn) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.closed {
		that.closed = true
		close(that.done)
	}

	return nil
}

func (that *Conn) readPump(handle func(data []byte)) {
	that.ws.SetReadLimit(that.conf.MaxMessageSize)
	_ = that.ws.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	that.ws.SetPongHandler(func(string) error {
		return that.ws.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	})

	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				that.logger.Error("read error", "error", err)
			}
			return
		}

		handle(data)
	}
}

func (that *Conn) writePump() {
	ticker := time.NewTicker(that.conf.PingPeriod())
	defer func() {
		ticker.Stop()
		that.ws.Close()
	}()

	for {
		select {
		case message := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))
			if err := that.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.ws.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))
			if err := that.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-that.done:
			that.flush()
			_ = that.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(that.conf.WriteWait))
			return
		}
	}
}

// flush - writes what is already queued so events sent before Close still arrive.
func (that *Conn) flush() {
	for {
		select {
		case message := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))
			if err := that.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
