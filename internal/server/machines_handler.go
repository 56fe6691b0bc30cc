package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ironview/backend/ivd/internal/machines"
	"ironview/backend/ivd/internal/storageview"
	"ironview/backend/ivd/pkg/httpx"
	"ironview/backend/ivd/pkg/validate"
)

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, map[string]any{"machines": s.machines.List()})
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hostname     string          `json:"hostname"`
		Architecture string          `json:"architecture"`
		Devices      json.RawMessage `json:"devices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := validate.Hostname(body.Hostname); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Architecture(body.Architecture); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	devices, err := decodeDevices(body.Devices)
	if err != nil {
		httpx.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, "invalid_devices", "device list rejected", err.Error())
		return
	}
	mc := s.machines.Create(body.Hostname, body.Architecture, devices)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(mc)
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	mc, err := s.machines.Get(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "machine not found")
		return
	}
	httpx.WriteJSON(w, mc)
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	if err := s.machines.Delete(chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "machine not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReplaceDevices is the upstream list replacement: the machine's
// raw device records are swapped wholesale and the storage view
// re-projected, carrying row state forward.
func (s *Server) handleReplaceDevices(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Devices json.RawMessage `json:"devices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	devices, err := decodeDevices(body.Devices)
	if err != nil {
		httpx.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, "invalid_devices", "device list rejected", err.Error())
		return
	}
	mc, err := s.machines.ReplaceDevices(chi.URLParam(r, "id"), devices)
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "machine not found")
		return
	}
	httpx.WriteJSON(w, mc)
}

func (s *Server) handleMachineEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.machines.Get(id); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "machine not found")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	evs, err := s.events.Recent(id, limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "event log unavailable")
		return
	}
	httpx.WriteJSON(w, map[string]any{"events": evs})
}

// decodeDevices schema-checks a raw device list, then unmarshals it.
func decodeDevices(raw json.RawMessage) ([]storageview.BlockDevice, error) {
	if len(raw) == 0 {
		return []storageview.BlockDevice{}, nil
	}
	if err := machines.ValidateDevicesPayload(raw); err != nil {
		return nil, err
	}
	var devices []storageview.BlockDevice
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// opError maps manager sentinel errors onto HTTP statuses.
func opError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, machines.ErrNotFound),
		errors.Is(err, machines.ErrDeviceNotFound),
		errors.Is(err, machines.ErrPartitionNotFound),
		errors.Is(err, machines.ErrRowNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, machines.ErrInvalidSize),
		errors.Is(err, machines.ErrInvalidMountPoint),
		errors.Is(err, machines.ErrNameTaken),
		errors.Is(err, machines.ErrNotEnoughDevices),
		errors.Is(err, machines.ErrNoFilesystem):
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, machines.ErrDeviceInUse):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
