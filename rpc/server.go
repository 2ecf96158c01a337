package rpc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/merklevest/merklevest/core"
	"github.com/merklevest/merklevest/log"
	"github.com/merklevest/merklevest/types"
)

// Server is a JSON-RPC HTTP server that dispatches requests to the VestAPI.
type Server struct {
	api *VestAPI
	mux *http.ServeMux
	log *log.Logger
}

// NewServer creates a new JSON-RPC server over the distributor. operator is
// the caller used for administrative methods; the zero address disables them.
func NewServer(dist *core.Distributor, operator types.Address) *Server {
	s := &Server{
		api: NewVestAPI(dist, operator),
		mux: http.NewServeMux(),
		log: log.Default().Module("rpc"),
	}
	s.mux.HandleFunc("/", s.handleRPC)
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, nil, ErrCodeParse, "failed to read request body")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, ErrCodeParse, "invalid JSON")
		return
	}

	resp := s.api.HandleRequest(&req)
	if resp.Error != nil {
		s.log.Debug("request failed", "method", req.Method,
			"code", resp.Error.Code, "err", resp.Error.Message)
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	resp := &Response{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message},
		ID:      id,
	}
	writeJSON(w, resp)
}
