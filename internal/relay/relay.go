package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"testviewer/internal/config"
)

// AuthPath is the only route the relay serves
const AuthPath = "/api/github-auth"

const maxBodySize = 64 * 1024

type authRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Server exchanges OAuth authorization codes for access tokens on behalf of the viewer,
// keeping the client secret out of the browser.
type Server struct {
	oauthBase    string
	redirectURIs []string
	credentials  func() (string, string, error)
	http         *http.Client
	logger       zerolog.Logger
}

// NewServer creates a relay from the OAuth settings of cfg
func NewServer(cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{
		oauthBase:    strings.TrimRight(cfg.OAuthBase, "/"),
		redirectURIs: cfg.RedirectURIs,
		credentials:  cfg.ClientCredentials,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != AuthPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		s.exchange(w, r)
	default:
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusMethodNotAllowed)
		io.WriteString(w, "Method not allowed")
	}
}

func (s *Server) exchange(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object")
		return
	}

	redirectURI := req.RedirectURI
	if redirectURI == "" && len(s.redirectURIs) > 0 {
		redirectURI = s.redirectURIs[0]
	}
	if !s.allowed(redirectURI) {
		s.logger.Warn().Str("redirect_uri", redirectURI).Msg("Invalid redirect URI")
		writeError(w, http.StatusBadRequest, "invalid_redirect_uri", "Invalid redirect URI")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing_code", "Authorization code is required")
		return
	}

	clientID, clientSecret, err := s.credentials()
	if err != nil {
		s.logger.Error().Err(err).Msg("Relay is not configured")
		writeError(w, http.StatusInternalServerError, "server_error", "OAuth client is not configured")
		return
	}

	body, err := s.requestToken(r.Context(), clientID, clientSecret, req.Code, redirectURI)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token exchange failed")
		writeError(w, http.StatusBadGateway, "upstream_error", "Token exchange failed")
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) requestToken(ctx context.Context, clientID, clientSecret, code, redirectURI string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     clientID,
		"client_secret": clientSecret,
		"code":          code,
		"redirect_uri":  redirectURI,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthBase+"/access_token", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post token request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	return data, nil
}

func (s *Server) allowed(redirectURI string) bool {
	for _, uri := range s.redirectURIs {
		if uri == redirectURI {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: code, ErrorDescription: description})
}

// ListenAndServe serves the relay on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("OAuth relay listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
