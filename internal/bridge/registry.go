package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/toolbridge/toolbridge/internal/log"
)

// Status of a managed server.
type Status string

const (
	StatusInstalling Status = "installing"
	StatusRunning    Status = "running"
	StatusStopped    Status = "stopped"
	StatusError      Status = "error"
	StatusRemoved    Status = "removed"
)

// ManagedServer is one bridge-mode child server. The launch command is built
// once at install time and only rebuilt via reinstall.
type ManagedServer struct {
	Name      string
	Origin    Origin
	Command   []string
	Env       map[string]string
	Endpoint  string
	Container string

	// guarded by mu; mu also serializes start/stop/restart/remove per name
	mu        sync.Mutex
	status    Status
	tools     []string
	lastError string
	instance  string
	session   ToolSession
}

// ServerInfo is a point-in-time copy of a managed server's state.
type ServerInfo struct {
	Name      string
	Origin    Origin
	Command   []string
	Endpoint  string
	Status    Status
	Tools     []string
	LastError string
}

// Health is a side-effect-free status report.
type Health struct {
	Status    Status
	ToolCount int
	LastError string
	Instance  string
}

// Registry owns the authoritative table of all bridge-mode servers.
//
// The registry map is guarded by a short-hold mutex; each entry owns its own
// mutex which serializes start/stop/restart/remove for that name. Slow work
// (launching, tool discovery) runs under the entry lock only, so operations
// on different names never block each other.
type Registry struct {
	mu      sync.Mutex
	servers map[string]*ManagedServer

	dial    Dialer
	runtime *Runtime
}

func NewRegistry(dial Dialer, runtime *Runtime) *Registry {
	if dial == nil {
		dial = Dial
	}
	return &Registry{
		servers: make(map[string]*ManagedServer),
		dial:    dial,
		runtime: runtime,
	}
}

// Add registers a new server in installing state. The name of a previously
// removed server may be reused.
func (r *Registry) Add(server *ManagedServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.servers[server.Name]; ok && cur.currentStatus() != StatusRemoved {
		return &DuplicateNameError{Name: server.Name}
	}
	server.status = StatusInstalling
	r.servers[server.Name] = server
	return nil
}

func (r *Registry) lookup(name string) (*ManagedServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.servers[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return s, nil
}

// Start launches the server, establishes its session and discovers its
// tools. Starting a running server is a no-op. On launch failure the entry
// transitions to error and stays in the registry for diagnosis.
func (r *Registry) Start(ctx context.Context, name string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return r.startLocked(ctx, s)
}

func (r *Registry) startLocked(ctx context.Context, s *ManagedServer) error {
	switch s.status {
	case StatusRunning:
		return nil
	case StatusRemoved:
		return &NotFoundError{Name: s.Name}
	case StatusError:
		return fmt.Errorf("server %q is in error state; remove and reinstall", s.Name)
	}

	// a stale container from a previous run would collide on --name
	if s.Container != "" && r.runtime != nil {
		if err := r.runtime.RemoveContainer(ctx, s.Container); err != nil {
			log.Debugf("failed to remove stale container %s: %v\n", s.Container, err)
		}
	}

	session, err := r.dial(ctx, s)
	if err != nil {
		s.status = StatusError
		s.lastError = err.Error()
		return &LaunchError{Name: s.Name, Err: err}
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		session.Close()
		s.status = StatusError
		s.lastError = err.Error()
		return &LaunchError{Name: s.Name, Err: err}
	}

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	s.session = session
	s.tools = names
	s.status = StatusRunning
	s.instance = uuid.NewString()
	s.lastError = ""

	log.Infof("server %s running with %d tools\n", s.Name, len(names))
	return nil
}

// Stop tears down the server's session. Stopping a server that is not
// running is a no-op; discovered tool names are kept for display.
func (r *Registry) Stop(ctx context.Context, name string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return r.stopLocked(ctx, s)
}

func (r *Registry) stopLocked(ctx context.Context, s *ManagedServer) error {
	if s.status != StatusRunning {
		return nil
	}

	if err := s.session.Close(); err != nil {
		log.Debugf("error closing session for %s: %v\n", s.Name, err)
	}
	s.session = nil
	s.status = StatusStopped

	if s.Container != "" && r.runtime != nil {
		if err := r.runtime.StopContainer(ctx, s.Container); err != nil {
			log.Debugf("failed to stop container %s: %v\n", s.Container, err)
		}
	}
	return nil
}

// Restart stops then starts the server in one serialized step. The tool list
// is re-fetched since the new instance may expose a different set.
func (r *Registry) Restart(ctx context.Context, name string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := r.stopLocked(ctx, s); err != nil {
		return err
	}
	return r.startLocked(ctx, s)
}

// Remove stops the server if running and deletes it from the registry. The
// name may be reused by a later Add.
func (r *Registry) Remove(ctx context.Context, name string) error {
	s, err := r.lookup(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := r.stopLocked(ctx, s); err != nil {
		s.mu.Unlock()
		return err
	}
	s.status = StatusRemoved
	s.tools = nil
	s.mu.Unlock()

	r.mu.Lock()
	delete(r.servers, name)
	r.mu.Unlock()
	return nil
}

// Session returns the live session for a running server. Tool handlers call
// this on every invocation so a stopped server fails fast instead of using a
// stale connection.
func (r *Registry) Session(name string) (ToolSession, error) {
	s, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning || s.session == nil {
		return nil, &NotRunningError{Name: name}
	}
	return s.session, nil
}

// Health reports status without side effects.
func (r *Registry) Health(name string) (*Health, error) {
	s, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &Health{
		Status:    s.status,
		ToolCount: len(s.tools),
		LastError: s.lastError,
		Instance:  s.instance,
	}, nil
}

// List returns a snapshot of all non-removed entries. The snapshot does not
// stay live.
func (r *Registry) List() []ServerInfo {
	r.mu.Lock()
	servers := make([]*ManagedServer, 0, len(r.servers))
	for _, s := range r.servers {
		servers = append(servers, s)
	}
	r.mu.Unlock()

	var infos []ServerInfo
	for _, s := range servers {
		s.mu.Lock()
		if s.status != StatusRemoved {
			infos = append(infos, ServerInfo{
				Name:      s.Name,
				Origin:    s.Origin,
				Command:   append([]string(nil), s.Command...),
				Endpoint:  s.Endpoint,
				Status:    s.status,
				Tools:     append([]string(nil), s.tools...),
				LastError: s.lastError,
			})
		}
		s.mu.Unlock()
	}
	return infos
}

// StopAll stops every running server; used on process shutdown.
func (r *Registry) StopAll(ctx context.Context) {
	for _, info := range r.List() {
		if info.Status == StatusRunning {
			if err := r.Stop(ctx, info.Name); err != nil {
				log.Errorf("failed to stop %s: %v\n", info.Name, err)
			}
		}
	}
}

func (s *ManagedServer) currentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
