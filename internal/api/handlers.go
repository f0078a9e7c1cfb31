package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tvpanel/internal/adb"
	"tvpanel/internal/events"
	"tvpanel/internal/session"
	"tvpanel/internal/supervisor"
	"tvpanel/web"
)

// DeviceCommander is the set of device operations the handlers need.
// *adb.Commander satisfies it; tests substitute a fake.
type DeviceCommander interface {
	Connect(ctx context.Context) adb.Result
	Devices(ctx context.Context) adb.Result
	SendKey(ctx context.Context, code int) adb.Result
	Reboot(ctx context.Context) adb.Result
	Screencap(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Handlers serves the panel's HTTP surface.
type Handlers struct {
	state *session.State
	cmd   DeviceCommander
	hub   *events.Hub
	log   *zap.Logger
}

func NewHandlers(state *session.State, cmd DeviceCommander, hub *events.Hub, log *zap.Logger) *Handlers {
	return &Handlers{state: state, cmd: cmd, hub: hub, log: log}
}

// bridgeResponse carries raw adb diagnostics back to the browser. Bridge
// failures are deliberately 200s: the user inspects code/err instead of
// getting a masked HTTP error.
type bridgeResponse struct {
	Out  string `json:"out"`
	Err  string `json:"err"`
	Code int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Index serves the panel page with the live device host substituted in.
func (h *Handlers) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(strings.ReplaceAll(web.IndexHTML, "{tv_ip}", h.state.Host())))
}

// SetIP replaces the device host for all future adb calls, including the
// supervisors already running.
func (h *Handlers) SetIP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	target, err := h.state.SetHost(body.IP)
	if err != nil {
		http.Error(w, "ip required", http.StatusBadRequest)
		return
	}
	h.log.Info("device retargeted", zap.String("target", target))
	h.hub.Publish("info", "device retargeted to "+target)
	writeJSON(w, http.StatusOK, map[string]string{
		"tv_ip":      h.state.Host(),
		"adb_device": target,
	})
}

// Connect asks the adb server to connect to the configured device.
func (h *Handlers) Connect(w http.ResponseWriter, r *http.Request) {
	res := h.cmd.Connect(r.Context())
	writeJSON(w, http.StatusOK, bridgeResponse{
		Out:  strings.TrimSpace(res.Out()),
		Err:  strings.TrimSpace(res.Err()),
		Code: res.ExitCode,
	})
}

// Status reports the adb device list and the current target.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	res := h.cmd.Devices(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"adb_devices": res.Out(),
		"adb_err":     res.Err(),
		"adb_device":  h.state.Target(),
	})
}

// Key injects a single keyevent. The body is {"key": <integer>}; anything
// that is not an integral number is rejected.
func (h *Handlers) Key(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body struct {
		Key json.Number `json:"key"`
	}
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	code, err := body.Key.Int64()
	if err != nil {
		http.Error(w, "key must be an integer", http.StatusBadRequest)
		return
	}
	res := h.cmd.SendKey(r.Context(), int(code))
	writeJSON(w, http.StatusOK, bridgeResponse{Out: res.Out(), Err: res.Err(), Code: res.ExitCode})
}

// Reboot reboots the device.
func (h *Handlers) Reboot(w http.ResponseWriter, r *http.Request) {
	res := h.cmd.Reboot(r.Context())
	h.hub.Publish("info", fmt.Sprintf("reboot issued (exit %d)", res.ExitCode))
	writeJSON(w, http.StatusOK, bridgeResponse{Out: res.Out(), Err: res.Err(), Code: res.ExitCode})
}

// Screenshot captures one frame and returns it as a PNG body.
func (h *Handlers) Screenshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.cmd.Screencap(r.Context(), adb.ScreenshotTimeout)
	if err != nil {
		if errors.Is(err, adb.ErrCaptureTimeout) {
			http.Error(w, "screencap timeout", http.StatusGatewayTimeout)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	_, _ = w.Write(data)
}

// Screen streams frames until the client disconnects. Every client gets
// its own capture loop.
func (h *Handlers) Screen(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", supervisor.StreamContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	stream := supervisor.NewFrameStream(h.cmd, h.log.Named("stream"), supervisor.StreamOptions{})
	if err := stream.Run(r.Context(), w); err != nil && !errors.Is(err, context.Canceled) {
		h.log.Debug("frame stream ended", zap.Error(err))
	}
}
