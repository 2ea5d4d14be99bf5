package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ferraris/geometry_browser/logger"
)

type Type int

const (
	INFO Type = iota
	ERROR
	PROGRESS
	ASSET
)

const historySize = 32

type Status struct {
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
	Type     Type      `json:"type"`
	Progress float32   `json:"progress"`
	File     string    `json:"file,omitempty"`
	Event    string    `json:"event,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans status messages out to websocket clients. New clients
// receive the recent history first.
type Broadcaster struct {
	incoming chan *Status
	done     chan struct{}

	lock    sync.Mutex
	clients map[*client]bool
	history [][]byte
}

func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		incoming: make(chan *Status, 16),
		done:     make(chan struct{}),
		clients:  make(map[*client]bool),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case s := <-b.incoming:
			data, err := json.Marshal(s)
			if err != nil {
				logger.Errorf("[status] marshal: %v", err)
				continue
			}
			b.lock.Lock()
			b.history = append(b.history, data)
			if len(b.history) > historySize {
				b.history = b.history[len(b.history)-historySize:]
			}
			for c := range b.clients {
				select {
				case c.send <- data:
				default:
					// slow reader, drop it rather than stall everyone
					b.removeLocked(c)
				}
			}
			b.lock.Unlock()
		case <-b.done:
			b.lock.Lock()
			for c := range b.clients {
				b.removeLocked(c)
			}
			b.lock.Unlock()
			return
		}
	}
}

func (b *Broadcaster) Close() {
	close(b.done)
}

func (b *Broadcaster) Publish(s *Status) {
	if math.IsNaN(float64(s.Progress)) || math.IsInf(float64(s.Progress), 0) {
		s.Progress = 0
	}
	if s.Time.IsZero() {
		s.Time = time.Now()
	}
	select {
	case b.incoming <- s:
	case <-b.done:
	}
}

// History returns the buffered messages, oldest first.
func (b *Broadcaster) History() []Status {
	b.lock.Lock()
	defer b.lock.Unlock()
	list := make([]Status, 0, len(b.history))
	for _, data := range b.history {
		var s Status
		if err := json.Unmarshal(data, &s); err == nil {
			list = append(list, s)
		}
	}
	return list
}

// Serve registers conn and pumps messages to it until either side closes.
func (b *Broadcaster) Serve(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, historySize+16)}

	b.lock.Lock()
	for _, data := range b.history {
		c.send <- data
	}
	b.clients[c] = true
	b.lock.Unlock()

	go b.readPump(c)
	b.writePump(c)
}

func (b *Broadcaster) removeLocked(c *client) {
	if b.clients[c] {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) unregister(c *client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.removeLocked(c)
}

// readPump only drains control frames so close and pong are noticed.
func (b *Broadcaster) readPump(c *client) {
	defer b.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) writePump(c *client) {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		b.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debugf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debugf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

var Default = NewBroadcaster()

func Info(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	logger.Infof("%s", msg)
	Default.Publish(&Status{Message: msg, Type: INFO})
}

func Error(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	logger.Errorf("%s", msg)
	Default.Publish(&Status{Message: msg, Type: ERROR})
}

func Progress(progress float32, format string, a ...interface{}) {
	Default.Publish(&Status{Message: fmt.Sprintf(format, a...), Type: PROGRESS, Progress: progress})
}

// Asset announces a change of an asset file, event is added, updated or
// removed.
func Asset(event, file string) {
	logger.Infof("Asset %s %s", file, event)
	Default.Publish(&Status{Message: file + " " + event, Type: ASSET, File: file, Event: event})
}
