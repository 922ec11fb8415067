package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lunfardo314/statecall/api"
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/util"
)

type (
	environment interface {
		global.Logging
		global.Metrics
		ProveExecution(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error)
		Header(id chain.BlockID) (*chain.Header, error)
		BestHeader() (*chain.Header, error)
	}

	Server struct {
		*http.Server
		environment
		metrics
		mux *http.ServeMux
	}
)

const TraceTag = "apiServer"

func New(addr string, env environment) *Server {
	srv := &Server{
		Server: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  10 * time.Second,
		},
		environment: env,
		mux:         http.NewServeMux(),
	}
	srv.Server.Handler = srv.mux
	srv.registerHandlers()
	srv.registerMetrics()
	return srv
}

// Run starts server and blocks until it is closed
func Run(addr string, env environment) {
	err := New(addr, env).ListenAndServe()
	if err != http.ErrServerClosed {
		util.AssertNoError(err)
	}
}

func (srv *Server) HTTPHandler() http.Handler {
	return srv.mux
}

func (srv *Server) registerHandlers() {
	// GET request format: '/execution_proof?block=<number or hex-encoded hash>&method=<method>[&input=<0x-prefixed hex>]'
	srv.addHandler(api.PathGetExecutionProof, srv.getExecutionProof)
	// GET request format: '/get_header?block=<number or hex-encoded hash>'
	srv.addHandler(api.PathGetHeader, srv.getHeader)
	// GET request format: '/node_info'
	srv.addHandler(api.PathGetNodeInfo, srv.getNodeInfo)
}

func (srv *Server) getExecutionProof(w http.ResponseWriter, r *http.Request) {
	setHeader(w)

	if global.IsShuttingDown() {
		writeErr(w, "node is shutting down")
		return
	}

	id, err := blockParam(r)
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	method := r.URL.Query().Get("method")
	if method == "" {
		writeErr(w, "parameter 'method' is required")
		return
	}
	var input []byte
	if inputStr := r.URL.Query().Get("input"); inputStr != "" {
		if input, err = hexutil.Decode(inputStr); err != nil {
			writeErr(w, fmt.Sprintf("wrong parameter 'input': %v", err))
			return
		}
	}
	srv.Tracef(TraceTag, "getExecutionProof invoked: block: %s, method: '%s'", id.String(), method)

	hash := id.Hash
	if id.ByNumber {
		h, err := srv.Header(id)
		if err != nil {
			writeErr(w, err.Error())
			return
		}
		if h == nil {
			writeErr(w, fmt.Sprintf("unknown block %s", id.String()))
			return
		}
		hash = h.Hash()
	}
	output, proof, err := srv.ProveExecution(r.Context(), hash, method, input)
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	proofBin, err := api.EncodeProof(proof)
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	writeJSON(w, &api.ExecutionProof{
		Output: output,
		Proof:  proofBin,
	})
}

func (srv *Server) getHeader(w http.ResponseWriter, r *http.Request) {
	setHeader(w)

	id, err := blockParam(r)
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	srv.Tracef(TraceTag, "getHeader invoked: block: %s", id.String())

	h, err := srv.Header(id)
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	if h == nil {
		writeErr(w, fmt.Sprintf("unknown block %s", id.String()))
		return
	}
	writeJSON(w, &api.Header{
		Hash:        h.Hash().String(),
		HeaderBytes: h.Bytes(),
	})
}

func (srv *Server) getNodeInfo(w http.ResponseWriter, _ *http.Request) {
	setHeader(w)

	best, err := srv.BestHeader()
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	resp := &api.NodeInfo{
		Version: global.Version,
		ChainID: global.ChainID,
	}
	if best != nil {
		resp.BestNumber = best.Number
		resp.BestHash = best.Hash().String()
	}
	writeJSON(w, resp)
}

func blockParam(r *http.Request) (chain.BlockID, error) {
	lst, ok := r.URL.Query()["block"]
	if !ok || len(lst) != 1 {
		return chain.BlockID{}, fmt.Errorf("wrong parameter 'block' in request '%s'", r.URL.Path)
	}
	return chain.ParseBlockID(lst[0])
}

func writeJSON(w http.ResponseWriter, resp any) {
	respBin, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	_, err = w.Write(respBin)
	util.AssertNoError(err)
}

func writeErr(w http.ResponseWriter, errStr string) {
	respBytes, err := json.Marshal(&api.Error{Error: errStr})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, err = w.Write(respBytes)
	util.AssertNoError(err)
}

func setHeader(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (srv *Server) addHandler(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	srv.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		handler(w, r)
		srv.metrics.totalRequests.Inc()
	})
}
