package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mogaika/saturn_viewer/tableau"
	"github.com/mogaika/saturn_viewer/utils"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

const (
	sendQueueSize = 32
	pingPeriod    = time.Second * 30
	writeWait     = time.Second * 40
	readLimit     = 64 * 1024
)

type status struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

// every websocket message is one envelope
type envelope struct {
	Kind   string         `json:"kind"`
	Status *status        `json:"status,omitempty"`
	Frame  *tableau.Frame `json:"frame,omitempty"`
	Client string         `json:"client,omitempty"`
}

// CommandHandler executes a text line received from a client and returns a reply
type CommandHandler func(client string, line string) (string, error)

// Hub pushes status messages and frames to every connected websocket client
type Hub struct {
	lock       sync.Mutex
	clients    map[*Client]bool
	lastStatus []byte
	lastFrame  []byte

	names    utils.RandomNameGenerator
	commands CommandHandler

	dropped uint64
}

func NewHub(commands CommandHandler) *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		commands: commands,
	}
}

type Client struct {
	Name string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] %s ws write msg error: %v", c.Name, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] %s ws write ping error: %v", c.Name, err)
				return
			}
		}
	}
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pingPeriod + writeWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingPeriod + writeWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[status] %s ws read error: %v", c.Name, err)
			}
			return
		}
		c.hub.handleLine(c, string(msg))
	}
}

// Serve registers conn and blocks until the client goes away
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &Client{
		Name: h.names.RandomName(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	log.Printf("[status] Client %s connected from %v", c.Name, conn.RemoteAddr())

	h.register(c)
	go c.writePump()
	c.readPump()

	h.unregister(c)
	h.names.Release(c.Name)
	log.Printf("[status] Client %s disconnected", c.Name)
}

func (h *Hub) register(c *Client) {
	hello, _ := json.Marshal(&envelope{Kind: "hello", Client: c.Name})

	h.lock.Lock()
	defer h.lock.Unlock()
	h.clients[c] = true
	c.send <- hello
	if h.lastStatus != nil {
		c.send <- h.lastStatus
	}
	if h.lastFrame != nil {
		c.send <- h.lastFrame
	}
}

func (h *Hub) unregister(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast never blocks, a client with a full queue misses the message
func (h *Hub) broadcast(data []byte) {
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped++
		}
	}
}

func (h *Hub) handleLine(c *Client, line string) {
	if h.commands == nil {
		return
	}
	reply, err := h.commands(c.Name, line)
	st := &status{Message: reply, Time: time.Now(), Type: INFO}
	if err != nil {
		st.Message = err.Error()
		st.Type = ERROR
	}
	data, err := json.Marshal(&envelope{Kind: "reply", Status: st})
	if err != nil {
		log.Printf("[status] Failed to marshal reply: %v", err)
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.dropped++
	}
}

// Present implements tableau.Presenter
func (h *Hub) Present(f *tableau.Frame) error {
	h.lock.Lock()
	if len(h.clients) == 0 {
		h.lastFrame = nil
		h.lock.Unlock()
		return nil
	}
	h.lock.Unlock()

	data, err := json.Marshal(&envelope{Kind: "frame", Frame: f})
	if err != nil {
		return err
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	h.lastFrame = data
	h.broadcast(data)
	return nil
}

func (h *Hub) Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	data, err := json.Marshal(&envelope{Kind: "status", Status: &status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress,
	}})
	if err != nil {
		log.Printf("[status] Failed to marshal status: %v", err)
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	h.lastStatus = data
	h.broadcast(data)
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func (h *Hub) Progress(progress float32, format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}

func (h *Hub) ClientsCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Dropped counts messages skipped because a client queue was full
func (h *Hub) Dropped() uint64 {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.dropped
}
