package server

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"ironview/backend/ivd/pkg/httpx"
)

var startTime = time.Now()

// SystemInfo describes the host the daemon runs on.
type SystemInfo struct {
	Hostname    string `json:"hostname"`
	Uptime      uint64 `json:"uptime"`
	Kernel      string `json:"kernel"`
	Platform    string `json:"platform"`
	Arch        string `json:"arch"`
	CPUCount    int    `json:"cpuCount,omitempty"`
	MemoryTotal uint64 `json:"memoryTotal,omitempty"`
	MemoryUsed  uint64 `json:"memoryUsed,omitempty"`
	DaemonUp    uint64 `json:"daemonUptime"`
}

// handleSystem reports host facts for the console's header widget.
// GET /api/v1/system
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	info := SystemInfo{
		Arch:     runtime.GOARCH,
		DaemonUp: uint64(time.Since(startTime).Seconds()),
	}
	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}
	if hostInfo, err := host.Info(); err == nil {
		info.Uptime = hostInfo.Uptime
		info.Kernel = hostInfo.KernelVersion
		info.Platform = hostInfo.Platform + " " + hostInfo.PlatformVersion
	}
	if cpuCount, err := cpu.Counts(true); err == nil {
		info.CPUCount = cpuCount
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotal = memInfo.Total
		info.MemoryUsed = memInfo.Used
	}
	httpx.WriteJSON(w, info)
}
