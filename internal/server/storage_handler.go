package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ironview/backend/ivd/internal/storageview"
	"ironview/backend/ivd/pkg/httpx"
)

func (s *Server) handleStorageView(w http.ResponseWriter, r *http.Request) {
	proj, modes, err := s.machines.Projection(chi.URLParam(r, "id"))
	if err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{
		"filesystems": proj.Filesystems,
		"cachesets":   proj.CacheSets,
		"available":   proj.Available,
		"used":        proj.Used,
		"modes":       modes,
	})
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Section string                `json:"section"`
		Ref     storageview.DeviceRef `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	modes, err := s.machines.ToggleSelection(chi.URLParam(r, "id"), body.Section, body.Ref)
	if err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"modes": modes})
}

func (s *Server) handleSetRowOptions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref     storageview.DeviceRef `json:"ref"`
		Options map[string]any        `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.SetRowOptions(chi.URLParam(r, "id"), body.Ref, body.Options); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var draft storageview.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.SetDraft(chi.URLParam(r, "id"), &draft); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.machines.ClearDraft(chi.URLParam(r, "id")); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCreatePartition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockID int64  `json:"block_id"`
		Size    string `json:"size"`
		Unit    string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.CreatePartition(chi.URLParam(r, "id"), body.BlockID, body.Size, body.Unit); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleDeletePartition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockID     int64 `json:"block_id"`
		PartitionID int64 `json:"partition_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.DeletePartition(chi.URLParam(r, "id"), body.BlockID, body.PartitionID); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref    storageview.DeviceRef `json:"ref"`
		FSType string                `json:"fstype"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.FSType == "" {
		httpx.WriteError(w, http.StatusBadRequest, "fstype required")
		return
	}
	if err := s.machines.Format(chi.URLParam(r, "id"), body.Ref, body.FSType); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref        storageview.DeviceRef `json:"ref"`
		MountPoint string                `json:"mount_point"`
		Options    string                `json:"mount_options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.Mount(chi.URLParam(r, "id"), body.Ref, body.MountPoint, body.Options); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref storageview.DeviceRef `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.Unmount(chi.URLParam(r, "id"), body.Ref); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleDeleteFilesystem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref storageview.DeviceRef `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.DeleteFilesystem(chi.URLParam(r, "id"), body.Ref); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockID int64 `json:"block_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.DeleteDevice(chi.URLParam(r, "id"), body.BlockID); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref  storageview.DeviceRef `json:"ref"`
		Name string                `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.Rename(chi.URLParam(r, "id"), body.Ref, body.Name); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleSetBootDisk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockID int64 `json:"block_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.SetBootDisk(chi.URLParam(r, "id"), body.BlockID); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlockID int64    `json:"block_id"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.UpdateTags(chi.URLParam(r, "id"), body.BlockID, body.Tags); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCreateCacheSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref storageview.DeviceRef `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.CreateCacheSet(chi.URLParam(r, "id"), body.Ref); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCreateBcache(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string                `json:"name"`
		Backing    storageview.DeviceRef `json:"backing"`
		CacheSetID int64                 `json:"cache_set_id"`
		CacheMode  string                `json:"cache_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.CreateBcache(chi.URLParam(r, "id"), body.Name, body.Backing, body.CacheSetID, body.CacheMode); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCreateRAID(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string                  `json:"name"`
		Level   string                  `json:"level"`
		Members []storageview.DeviceRef `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.CreateRAID(chi.URLParam(r, "id"), body.Name, body.Level, body.Members); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCreateVolumeGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string                  `json:"name"`
		Members []storageview.DeviceRef `json:"members"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.CreateVolumeGroup(chi.URLParam(r, "id"), body.Name, body.Members); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCreateLogicalVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VolumeGroupID int64  `json:"volume_group_id"`
		Name          string `json:"name"`
		Size          string `json:"size"`
		Unit          string `json:"unit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := s.machines.CreateLogicalVolume(chi.URLParam(r, "id"), body.VolumeGroupID, body.Name, body.Size, body.Unit); err != nil {
		opError(w, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true})
}
