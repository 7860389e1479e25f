package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/winstated/internal/runtimepath"
	"github.com/1broseidon/winstated/internal/state"
)

// DroppedCounter reports how many domain events the dispatcher has dropped.
type DroppedCounter interface {
	Dropped() uint64
}

// Server answers registry queries over a unix socket.
type Server struct {
	socketPath   string
	listener     net.Listener
	st           *state.State
	drops        DroppedCounter
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates an IPC server over the state service. socketPath may be
// empty to use the default runtime location. drops may be nil.
func NewServer(st *state.State, drops DroppedCounter, socketPath string, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		st:         st,
		drops:      drops,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections and serves them until Stop.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping {
				return
			}
			s.logger.Warn("IPC accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		if err != io.EOF {
			s.logger.Warn("IPC read failed", "error", err)
		}
		return
	}

	var req Request
	var resp *Response
	if err := json.Unmarshal(line, &req); err != nil {
		resp = NewErrorResponse(fmt.Errorf("malformed request: %w", err))
	} else {
		resp = s.handleRequest(&req)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("IPC response marshal failed", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("IPC write failed", "error", err)
	}
}

func (s *Server) handleRequest(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandListApplications:
		return s.handleListApplications()
	case CommandGetWindow:
		return s.handleGetWindow(req.Payload)
	case CommandRefresh:
		return s.handleRefresh()
	default:
		return NewErrorResponse(fmt.Errorf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	var dropped uint64
	if s.drops != nil {
		dropped = s.drops.Dropped()
	}
	resp, err := NewOKResponse(StatusData{
		WindowCount:      s.st.WindowCount(),
		ApplicationCount: s.st.ApplicationCount(),
		EventsDropped:    dropped,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:    true,
	})
	if err != nil {
		return NewErrorResponse(err)
	}
	return resp
}

func (s *Server) handleListWindows() *Response {
	windows := s.st.Windows()
	infos := make([]WindowInfo, 0, len(windows))
	for _, w := range windows {
		infos = append(infos, WindowInfo{
			ID:    w.ID(),
			PID:   w.Owner().PID(),
			App:   w.Owner().Name(),
			Title: w.Title(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	resp, err := NewOKResponse(WindowsData{Windows: infos})
	if err != nil {
		return NewErrorResponse(err)
	}
	return resp
}

func (s *Server) handleListApplications() *Response {
	perApp := make(map[int]int)
	for _, w := range s.st.Windows() {
		perApp[w.Owner().PID()]++
	}

	apps := s.st.Applications()
	infos := make([]ApplicationInfo, 0, len(apps))
	for _, app := range apps {
		infos = append(infos, ApplicationInfo{
			PID:         app.PID(),
			Name:        app.Name(),
			WindowCount: perApp[app.PID()],
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].PID < infos[j].PID })

	resp, err := NewOKResponse(ApplicationsData{Applications: infos})
	if err != nil {
		return NewErrorResponse(err)
	}
	return resp
}

func (s *Server) handleGetWindow(payload json.RawMessage) *Response {
	var p GetWindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Errorf("malformed payload: %w", err))
	}

	w, ok := s.st.Window(p.ID)
	if !ok {
		return NewErrorResponse(fmt.Errorf("window %d not tracked", p.ID))
	}
	resp, err := NewOKResponse(WindowInfo{
		ID:    w.ID(),
		PID:   w.Owner().PID(),
		App:   w.Owner().Name(),
		Title: w.Title(),
	})
	if err != nil {
		return NewErrorResponse(err)
	}
	return resp
}

func (s *Server) handleRefresh() *Response {
	s.st.Refresh()
	resp, err := NewOKResponse(RefreshData{WindowCount: s.st.WindowCount()})
	if err != nil {
		return NewErrorResponse(err)
	}
	return resp
}
