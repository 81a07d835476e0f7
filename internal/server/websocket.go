package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	host, ok := s.checkOrigin(r)
	if !ok {
		s.logger.Warn(r.Context(), nil, "websocket origin rejected", "origin", r.Header.Get("Origin"))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{host},
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	s.hub.Serve(conn)
}

// checkOrigin accepts http(s) origins naming the configured listen address,
// its loopback aliases, or an entry of server.allowed_origins. Requests
// without an Origin header are rejected. It returns the origin host.
func (s *Server) checkOrigin(r *http.Request) (string, bool) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return "", false
	}

	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return "", false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return "", false
	}

	port := s.config.Server.Port
	allowed := []string{
		s.Addr(),
		fmt.Sprintf("localhost:%d", port),
		fmt.Sprintf("127.0.0.1:%d", port),
	}
	for _, host := range allowed {
		if originURL.Host == host {
			return originURL.Host, true
		}
	}

	if s.isAllowedOrigin(origin) {
		return originURL.Host, true
	}
	return "", false
}

// isAllowedOrigin checks if the origin is in the allowed origins list
func (s *Server) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
