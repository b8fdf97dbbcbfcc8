package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rzbill/flo/internal/problem"
	"github.com/rzbill/flo/internal/publishing"
	"github.com/rzbill/flo/internal/runtime"
	"github.com/rzbill/flo/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server exposes the Topic Repository and Streaming Controller over HTTP.
type Server struct {
	rt  *runtime.Runtime
	srv *http.Server
	lis net.Listener
}

// New builds a Server wired to rt's domain collaborators. Routes follow the
// teacher's flat-path, query-param convention rather than a path-parameter
// router, since the runtime's net/http mux predates Go 1.22 pattern routing.
func New(rt *runtime.Runtime) *Server {
	mux := http.NewServeMux()
	s := &Server{rt: rt, srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/event-types", s.handleEventTypes)
	mux.HandleFunc("/v1/events", s.handleEvents)
	return s
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Flo-Client-Id, X-Flo-Scopes, X-nakadi-cursors")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		problem.Write(w, problem.New(http.StatusServiceUnavailable, "not serving"))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type eventTypeReq struct {
	Name       string   `json:"name"`
	Partitions int      `json:"partitions"`
	ReadScopes []string `json:"read_scopes"`
}

// handleEventTypes: POST creates an event type (and its backing topic) with
// the configured default partition count, ignoring the request's
// "partitions" field, and returns the existing record if the name is known;
// GET looks one up by the "name" query parameter.
func (s *Server) handleEventTypes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req eventTypeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problem.Write(w, problem.New(http.StatusBadRequest, "malformed request body"))
			return
		}
		meta, err := s.rt.EnsureEventType(req.Name, req.ReadScopes)
		if err != nil {
			problem.Write(w, problem.New(http.StatusInternalServerError, err.Error()))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(meta)
	case http.MethodGet:
		name := r.URL.Query().Get("name")
		meta, err := s.rt.EventTypes().Get(name)
		if err != nil {
			problem.Write(w, problem.New(http.StatusNotFound, "event type not found"))
			return
		}
		_ = json.NewEncoder(w).Encode(meta)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type publishItemReq struct {
	Payload   string `json:"payload"`
	Partition string `json:"partition"`
}

type publishResultItem struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// handleEvents: POST publishes a batch to an event type's topic (§4.3);
// GET streams from it (§4.4).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	eventTypeName := r.URL.Query().Get("event_type")
	if eventTypeName == "" {
		problem.Write(w, problem.New(http.StatusBadRequest, "event_type query parameter is required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.rt.Controller().ServeEvents(w, r, eventTypeName)
	case http.MethodPost:
		s.handlePublish(w, r, eventTypeName)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, eventTypeName string) {
	meta, err := s.rt.EventTypes().Get(eventTypeName)
	if err != nil {
		problem.Write(w, problem.New(http.StatusNotFound, "event type not found"))
		return
	}

	var items []publishItemReq
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		problem.Write(w, problem.New(http.StatusBadRequest, "malformed request body"))
		return
	}
	if len(items) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	batch := make([]*publishing.BatchItem, 0, len(items))
	for _, it := range items {
		partition := it.Partition
		if partition == "" {
			partition = strconv.Itoa(0)
		}
		batch = append(batch, publishing.NewBatchItem(it.Payload, partition))
	}

	pubErr := s.rt.Repo().SyncPostBatch(r.Context(), meta.Topic, batch)

	results := make([]publishResultItem, len(batch))
	anyFailed := false
	for i, item := range batch {
		resp := item.Response()
		results[i] = publishResultItem{Status: resp.Status.String(), Detail: resp.Detail}
		if resp.Status == publishing.StatusFailed {
			anyFailed = true
		}
	}

	status := http.StatusOK
	if pubErr != nil || anyFailed {
		s.rt.Logger().Warn("publish batch reported failure", log.Err(pubErr), log.Str("event_type", eventTypeName))
		status = http.StatusMultiStatus
		if pubErr != nil && !anyFailed {
			// SyncPostBatch failed but somehow left no item FAILED: the
			// per-item view can't explain the failure, so surface it as a
			// server error rather than claiming the batch succeeded.
			status = http.StatusInternalServerError
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(results)
}
