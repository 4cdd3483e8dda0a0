package axleweigh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

const requestTimeout = 5 * time.Second

func newRouter(rt *Runtime) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", rt.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/status", rt.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/session/axle", rt.handleSetAxle).Methods(http.MethodPut)
	api.HandleFunc("/session/save", rt.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/session/{op:start|stop|clear|pause|resume}", rt.handleSessionOp).Methods(http.MethodPost)
	api.HandleFunc("/export", rt.handleExport).Methods(http.MethodPost)
	api.HandleFunc("/simulator/reset", rt.handleSimulatorReset).Methods(http.MethodPost)
	api.HandleFunc("/simulator/{side:left|right}", rt.handleGetChannel).Methods(http.MethodGet)
	api.HandleFunc("/simulator/{side:left|right}", rt.handlePutChannel).Methods(http.MethodPut)

	r.HandleFunc("/ws", rt.hub.serveWS)
	r.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// commandStatus maps scheduler failures to HTTP codes.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrSchedulerClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (rt *Runtime) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := rt.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("no snapshot published yet"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (rt *Runtime) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	st, err := rt.Status(ctx)
	if err != nil {
		writeError(w, commandStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type sessionOpResponse struct {
	Op      string `json:"op"`
	Applied bool   `json:"applied"`
	Status  Status `json:"status"`
}

func (rt *Runtime) handleSessionOp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	op := mux.Vars(r)["op"]
	applied := true
	var err error
	switch op {
	case "start":
		applied, err = rt.StartTest(ctx)
	case "stop":
		applied, err = rt.StopTest(ctx)
	case "clear":
		_, err = rt.ClearTest(ctx)
	case "pause":
		err = rt.Pause(ctx)
	case "resume":
		err = rt.Resume(ctx)
	}
	if err != nil {
		writeError(w, commandStatus(err), err)
		return
	}

	st, err := rt.Status(ctx)
	if err != nil {
		writeError(w, commandStatus(err), err)
		return
	}
	code := http.StatusOK
	if !applied {
		code = http.StatusConflict
	}
	writeJSON(w, code, sessionOpResponse{Op: op, Applied: applied, Status: st})
}

func (rt *Runtime) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, fut, err := rt.SaveTest(ctx)
	switch {
	case errors.Is(err, domain.ErrNoActiveSession):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, commandStatus(err), err)
		return
	case rec == nil:
		writeError(w, http.StatusConflict, errors.New("save is not allowed while reading"))
		return
	}

	select {
	case err := <-fut:
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{"record": rec, "error": err.Error()})
			return
		}
	case <-ctx.Done():
		writeJSON(w, http.StatusAccepted, map[string]any{"record": rec})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

type axleRequest struct {
	AxleNumber uint8 `json:"axleNumber"`
}

func (rt *Runtime) handleSetAxle(w http.ResponseWriter, r *http.Request) {
	var req axleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := rt.SetAxle(ctx, req.AxleNumber); err != nil {
		if req.AxleNumber == 0 {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, commandStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type exportRequest struct {
	Name string `json:"name"`
}

// handleExport writes the window CSV into the report directory. Only the base
// name of the requested file is used.
func (rt *Runtime) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
			return
		}
	}
	name := filepath.Base(req.Name)
	if req.Name == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("window_%s.csv", time.Now().Format("20060102_150405"))
	}
	path := filepath.Join(rt.cfg.Output.ReportDir, name)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	fut, err := rt.ExportCSV(ctx, path)
	if err != nil {
		writeError(w, commandStatus(err), err)
		return
	}
	select {
	case err := <-fut:
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case <-ctx.Done():
		writeError(w, http.StatusGatewayTimeout, ctx.Err())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (rt *Runtime) channel(side string) (ports.SimulatedChannel, bool) {
	left, right, ok := rt.SimulatedChannels()
	if !ok {
		return nil, false
	}
	if side == "left" {
		return left, true
	}
	return right, true
}

func (rt *Runtime) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	ch, ok := rt.channel(mux.Vars(r)["side"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("simulator is not the active source"))
		return
	}
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"params": ch.Params(),
		"weight": ch.Weight(now),
		"adc":    ch.ADCValue(now),
	})
}

func (rt *Runtime) handlePutChannel(w http.ResponseWriter, r *http.Request) {
	ch, ok := rt.channel(mux.Vars(r)["side"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("simulator is not the active source"))
		return
	}
	p := ch.Params()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if p.NoiseLevel < 0 || p.Damping < 0 {
		writeError(w, http.StatusBadRequest, errors.New("noise and damping must not be negative"))
		return
	}
	ch.SetParams(p)
	writeJSON(w, http.StatusOK, map[string]any{"params": p})
}

func (rt *Runtime) handleSimulatorReset(w http.ResponseWriter, _ *http.Request) {
	if rt.sim == nil {
		writeError(w, http.StatusNotFound, errors.New("simulator is not the active source"))
		return
	}
	rt.sim.ResetPatterns(time.Now())
	w.WriteHeader(http.StatusNoContent)
}
