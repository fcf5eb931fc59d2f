package live

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// EventHandler receives decoded client events for a session.
type EventHandler func(session *Session, evt Event)

// Server accepts preview websocket connections, one session per page.
type Server struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	sessions map[string]*Session
	onEvent  EventHandler
	store    *Store
}

// NewServer creates a server. The preview runs on localhost, so the
// upgrader accepts any origin.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}
}

// SetEventHandler installs the callback for client events.
func (s *Server) SetEventHandler(h EventHandler) {
	s.mu.Lock()
	s.onEvent = h
	s.mu.Unlock()
}

// SetStore attaches session-state persistence. Sessions reconnecting
// after a restart get their remembered state back.
func (s *Server) SetStore(st *Store) {
	s.mu.Lock()
	s.store = st
	s.mu.Unlock()
}

// HandleWebSocket upgrades a connection for /live/{sessionID}.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if sessionID == "" {
		http.Error(w, "session id required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: upgrade failed: %v", err)
		return
	}

	session := s.adopt(sessionID, conn)
	go session.run()
}

// adopt attaches a connection to an existing session or creates one,
// restoring persisted state on first sight.
func (s *Server) adopt(sessionID string, conn *websocket.Conn) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.replaceConn(conn)
		return sess
	}

	sess := &Session{
		ID:     sessionID,
		server: s,
		conn:   conn,
		state:  make(map[string]string),
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	if s.store != nil {
		if saved, err := s.store.LoadSession(sessionID); err == nil && saved != nil {
			sess.state = saved
		}
	}
	s.sessions[sessionID] = sess
	return sess
}

// Session returns a live session by ID.
func (s *Server) Session(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// RemoveSession forgets a session and its persisted state.
func (s *Server) RemoveSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	st := s.store
	s.mu.Unlock()
	if st != nil {
		if err := st.DeleteSession(sessionID); err != nil {
			log.Printf("live: forget session %s: %v", sessionID, err)
		}
	}
}

// SendPatches streams a patch frame to one session. Empty patch lists
// send nothing.
func (s *Server) SendPatches(sessionID string, patches []scene.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	sess, ok := s.Session(sessionID)
	if !ok {
		return nil
	}
	frame, err := EncodePatches(patches)
	if err != nil {
		return err
	}
	sess.enqueue(frame)
	return nil
}

// Broadcast sends a control command to every session.
func (s *Server) Broadcast(command string) {
	frame := EncodeControl(command)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.enqueue(frame)
	}
}

// Session is one connected preview page.
type Session struct {
	ID     string
	server *Server

	mu    sync.Mutex
	conn  *websocket.Conn
	state map[string]string
	send  chan []byte
	done  chan struct{}
}

// Remember persists a state entry for the session.
func (sess *Session) Remember(key, value string) {
	sess.mu.Lock()
	sess.state[key] = value
	snapshot := make(map[string]string, len(sess.state))
	for k, v := range sess.state {
		snapshot[k] = v
	}
	sess.mu.Unlock()

	if st := sess.server.store; st != nil {
		if err := st.SaveSession(sess.ID, snapshot); err != nil {
			log.Printf("live: persist session %s: %v", sess.ID, err)
		}
	}
}

// State returns a copy of the remembered session state.
func (sess *Session) State() map[string]string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make(map[string]string, len(sess.state))
	for k, v := range sess.state {
		out[k] = v
	}
	return out
}

func (sess *Session) enqueue(frame []byte) {
	select {
	case sess.send <- frame:
	default:
		log.Printf("live: session %s send queue full, dropping frame", sess.ID)
	}
}

func (sess *Session) replaceConn(conn *websocket.Conn) {
	sess.mu.Lock()
	if sess.conn != nil {
		sess.conn.Close()
	}
	sess.conn = conn
	select {
	case <-sess.done:
		sess.done = make(chan struct{})
	default:
	}
	sess.mu.Unlock()
}

// run owns the connection: a writer goroutine drains the send queue and
// pings, the read loop dispatches event frames until the peer goes
// away.
func (sess *Session) run() {
	sess.mu.Lock()
	conn := sess.conn
	done := sess.done
	sess.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			conn.Close()
			close(done)
		})
	}
	defer cleanup()

	go sess.writer(conn, done)

	sess.enqueue(EncodeControl(ControlHello))

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live: session %s closed unexpectedly: %v", sess.ID, err)
			}
			return
		}
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		sess.dispatch(data)
	}
}

func (sess *Session) dispatch(data []byte) {
	switch FrameType(data[0]) {
	case FrameEvent:
		evt, err := DecodeEvent(data)
		if err != nil {
			log.Printf("live: session %s: bad event frame: %v", sess.ID, err)
			return
		}
		sess.server.mu.RLock()
		handler := sess.server.onEvent
		sess.server.mu.RUnlock()
		if handler != nil {
			handler(sess, evt)
		}
	case FrameControl:
		// Clients currently send nothing here; tolerated for forward
		// compatibility.
	default:
		log.Printf("live: session %s: unexpected frame type %#x", sess.ID, data[0])
	}
}

func (sess *Session) writer(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-sess.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Printf("live: session %s write: %v", sess.ID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
