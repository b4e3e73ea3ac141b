package restserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tanksentry/tanksentry/internal/types"
)

type systemResponse struct {
	types.SystemInfo
	UptimeSeconds int64           `json:"uptime_seconds"`
	RSSI          *types.Snapshot `json:"rssi,omitempty"`
}

type resetResponse struct {
	Result  string `json:"result"`
	Channel string `json:"channel,omitempty"`
}

func (c *Controller) handleSnapshots(w http.ResponseWriter, req *http.Request) {
	if err := c.formatter.WriteResponse(w, req, c.board.Snapshots()); err != nil {
		c.logger.Errorf("error writing snapshots response: %v", err)
	}
}

func (c *Controller) handleSnapshot(w http.ResponseWriter, req *http.Request) {
	channel := mux.Vars(req)["channel"]
	snap, ok := c.board.Snapshot(channel)
	if !ok {
		http.Error(w, "unknown channel", http.StatusNotFound)
		return
	}
	if err := c.formatter.WriteResponse(w, req, snap); err != nil {
		c.logger.Errorf("error writing snapshot response: %v", err)
	}
}

func (c *Controller) handleSystem(w http.ResponseWriter, req *http.Request) {
	resp := systemResponse{
		SystemInfo:    c.system,
		UptimeSeconds: int64(time.Since(c.system.StartedAt).Seconds()),
	}
	if rssi, ok := c.board.Snapshot(types.ChannelRSSI); ok && rssi.Seeded {
		resp.RSSI = &rssi
	}
	if err := c.formatter.WriteResponse(w, req, resp); err != nil {
		c.logger.Errorf("error writing system response: %v", err)
	}
}

// handleResetExtrema re-arms the extrema tracker for one channel, or for
// every channel when none is named. The reset is applied asynchronously by
// the scheduler loop.
func (c *Controller) handleResetExtrema(w http.ResponseWriter, req *http.Request) {
	channel := mux.Vars(req)["channel"]
	if channel != "" {
		if _, ok := c.board.Snapshot(channel); !ok {
			http.Error(w, "unknown channel", http.StatusNotFound)
			return
		}
	}

	c.scheduler.ResetExtrema(channel)
	c.logger.Infof("extrema reset requested via REST (channel=%q)", channel)

	w.WriteHeader(http.StatusAccepted)
	if err := c.formatter.WriteResponse(w, req, resetResponse{Result: "accepted", Channel: channel}); err != nil {
		c.logger.Errorf("error writing reset response: %v", err)
	}
}
