package progress

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"sync"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventsPath = "/events/progress"
	SocketPath = "/ws/progress"
)

// Status is the progress of one program.
type Status struct {
	File    string `json:"file"`
	Percent int    `json:"percent"`
	Tally   int    `json:"tally"`
	Lines   int    `json:"lines"`
}

// Server publishes status updates as server-sent events and over
// websockets. New websocket clients receive the latest status on connect.
type Server struct {
	http.Handler

	log      *zap.Logger
	sse      *sse.Server
	upgrader websocket.Upgrader

	mx      sync.Mutex
	clients map[*client]struct{}
	last    *Status
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan Status
	done chan struct{}
	once sync.Once
}

func (c *client) close() { c.once.Do(func() { close(c.done) }) }

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()
	s := &Server{
		Handler: r,
		log:     logger,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}

	r.Handle(EventsPath, s.sse).Methods("GET")
	r.HandleFunc(SocketPath, s.socket).Methods("GET")

	return s
}

// Update publishes st to every connected client.
func (s *Server) Update(st Status) {
	data, err := json.Marshal(st)
	if err != nil {
		s.log.Error("marshal status", zap.Error(err))
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return
	}
	s.last = &st
	s.sse.SendMessage(EventsPath, sse.SimpleMessage(string(data)))
	for c := range s.clients {
		select {
		case c.send <- st:
		default:
			s.log.Debug("websocket client behind, dropping update")
		}
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mx.Lock()
	if s.closed {
		s.mx.Unlock()
		return
	}
	s.closed = true
	for c := range s.clients {
		c.close()
	}
	s.mx.Unlock()

	s.sse.Shutdown()
}

func (s *Server) socket(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan Status, 16),
		done: make(chan struct{}),
	}

	s.mx.Lock()
	if s.closed {
		s.mx.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.send <- *s.last
	}
	s.mx.Unlock()
	s.log.Debug("websocket client connected", zap.String("remote", req.RemoteAddr))

	go s.writeLoop(c)

	// incoming messages are ignored; reading notices the client leaving
	for {
		_, _, err := conn.NextReader()
		if err != nil {
			break
		}
	}

	s.mx.Lock()
	delete(s.clients, c)
	s.mx.Unlock()
	c.close()
	s.log.Debug("websocket client disconnected", zap.String("remote", req.RemoteAddr))
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for {
		select {
		case st := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := c.conn.WriteJSON(st)
			if err != nil {
				s.log.Debug("websocket write", zap.Error(err))
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
