package server

import (
	"net"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/bebac/spotihifi/internal/engine"
	"github.com/bebac/spotihifi/internal/rpcproto"
)

// idleTimeout is how long a connection may go without outbound traffic
// before the server sends an empty-object keep-alive frame.
const idleTimeout = 60 * time.Second

// connection owns one client socket. Reads happen on the goroutine
// that calls serve; writes (responses, notifications, idle pings) are
// all made by the single writeLoop goroutine so they never interleave.
// Responses and notifications reach it through send.
type connection struct {
	conn   net.Conn
	eng    *engine.Engine
	logger *log.Logger

	send chan []byte
	done chan struct{}

	obs *connObserver
}

func newConnection(conn net.Conn, eng *engine.Engine, logger *log.Logger) *connection {
	c := &connection{
		conn:   conn,
		eng:    eng,
		logger: logger,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	c.obs = &connObserver{c: c}
	return c
}

// connObserver adapts engine.Observer onto a connection's outbound
// queue, translating PlaybackEvent into a pb-event notification.
type connObserver struct {
	c *connection
}

func (o *connObserver) PlayerStateEvent(ev engine.PlaybackEvent) {
	notification := rpcproto.NewPBEvent(ev.State, rpcproto.NewTrackPayload(ev.Track))
	data, err := json.Marshal(notification)
	if err != nil {
		o.c.logger.Error("failed to encode pb-event", "err", err)
		return
	}
	o.c.enqueue(data)
}

func (c *connection) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// serve drives the connection until the peer disconnects or a
// transport error occurs. It registers and unregisters the playback
// observer and starts the writer goroutine.
func (c *connection) serve() {
	c.eng.ObserverAttach(c.obs)
	defer c.eng.ObserverDetach(c.obs)

	go c.writeLoop()
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	for {
		body, err := readFrame(c.conn)
		if err != nil {
			c.logger.Info("client connection closed", "err", err)
			return
		}

		resp := dispatch(c.eng, body)
		if resp.Error != nil {
			c.logger.Info("request failed", "code", resp.Error.Code, "message", resp.Error.Message)
		}
		data, err := json.Marshal(resp)
		if err != nil {
			c.logger.Error("failed to encode response", "err", err)
			continue
		}
		c.enqueue(data)
	}
}

func (c *connection) writeLoop() {
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := writeFrame(c.conn, data); err != nil {
				c.logger.Error("failed to write frame", "err", err)
				c.conn.Close()
				return
			}
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(idleTimeout)

		case <-idle.C:
			if err := writeFrame(c.conn, []byte("{}")); err != nil {
				c.logger.Error("failed to write idle ping", "err", err)
				c.conn.Close()
				return
			}
			idle.Reset(idleTimeout)

		case <-c.done:
			return
		}
	}
}
