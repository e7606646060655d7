// Package axontest runs an in-process axon for dendrite tests.
//
// Forward functions are attached by synapse type, the way an axon serves them:
//
//	axon := axontest.NewServer(t)
//	axon.Attach(func(s *Increment) error { ... })
//	info := axon.Info() // AxonInfo pointing at the httptest listener
//
// Each request is decoded into a fresh synapse, passed to the forward function and
// answered with the synapse re-encoded, its axon terminal carrying the outcome.
package axontest

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xxfu/bittensor/synapse"
)

// Server is a test axon.
type Server struct {
	srv      *httptest.Server
	hotkey   string
	mu       sync.RWMutex
	services map[string]*service
	raw      map[string]http.HandlerFunc
	requests atomic.Int64
}

// NewServer starts a test axon and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		hotkey:   "axon-" + strings.ReplaceAll(t.Name(), "/", "-"),
		services: make(map[string]*service),
		raw:      make(map[string]http.HandlerFunc),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// Attach serves fn, a func(*T) error, under the route name of T.
func (s *Server) Attach(fn any) error {
	svc, err := newService(fn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.services[svc.name] = svc
	s.mu.Unlock()
	return nil
}

// HandleFunc serves name with a raw handler, for answers a forward function cannot
// produce.
func (s *Server) HandleFunc(name string, fn http.HandlerFunc) {
	s.mu.Lock()
	s.raw[name] = fn
	s.mu.Unlock()
}

// Info returns the AxonInfo of the listener.
func (s *Server) Info() synapse.AxonInfo {
	host, portText, _ := net.SplitHostPort(s.srv.Listener.Addr().String())
	port, _ := strconv.Atoi(portText)
	return synapse.AxonInfo{
		Version: 1,
		IP:      host,
		Port:    port,
		IPType:  4,
		Hotkey:  s.hotkey,
		Coldkey: "cold",
	}
}

// Requests returns how many requests reached the axon.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	start := time.Now()
	name := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.RLock()
	svc, ok := s.services[name]
	raw, rawOK := s.raw[name]
	s.mu.RUnlock()

	if rawOK {
		raw(w, r)
		return
	}
	if !ok || r.Method != http.MethodPost {
		writeMessage(w, http.StatusNotFound, "Synapse name '"+name+"' not found")
		return
	}

	argv := reflect.New(svc.argType)
	if err := json.NewDecoder(r.Body).Decode(argv.Interface()); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := svc.call(argv); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	header := argv.Interface().(synapse.Synapse).Header()
	header.Axon = &synapse.TerminalInfo{
		StatusCode:    http.StatusOK,
		StatusMessage: "Success",
		ProcessTime:   time.Since(start).Seconds(),
		Hotkey:        s.hotkey,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(argv.Interface())
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
