package server

import (
	"context"
	"runtime"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ironview/backend/ivd/internal/disks"
	"ironview/backend/ivd/internal/machines"
)

// Rescanner periodically re-reads the local host's block devices and
// keeps a dedicated "local" machine in sync with them. Re-projection
// carries selection and option state across scans.
type Rescanner struct {
	logger  zerolog.Logger
	manager *machines.Manager
	cron    *cron.Cron
	localID string
}

// NewRescanner builds a rescanner; Start schedules it.
func NewRescanner(logger zerolog.Logger, mgr *machines.Manager) *Rescanner {
	return &Rescanner{
		logger:  logger.With().Str("component", "rescan").Logger(),
		manager: mgr,
		cron:    cron.New(),
	}
}

// Start performs one synchronous scan, then schedules recurring scans
// with the given cron spec.
func (rs *Rescanner) Start(ctx context.Context, spec string) error {
	rs.scan(ctx)
	if _, err := rs.cron.AddFunc(spec, func() { rs.scan(context.Background()) }); err != nil {
		return err
	}
	rs.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (rs *Rescanner) Stop() {
	<-rs.cron.Stop().Done()
}

func (rs *Rescanner) scan(ctx context.Context) {
	devices, err := disks.Collect(ctx)
	if err != nil {
		rs.logger.Warn().Err(err).Msg("local disk scan failed")
		return
	}
	if rs.localID == "" {
		mc := rs.manager.Create("local", runtime.GOARCH+"/generic", devices)
		rs.localID = mc.ID
		rs.logger.Info().Str("machine", mc.ID).Int("devices", len(devices)).Msg("registered local machine")
		return
	}
	if _, err := rs.manager.ReplaceDevices(rs.localID, devices); err != nil {
		rs.logger.Warn().Err(err).Msg("local device refresh failed")
		return
	}
	rs.logger.Debug().Int("devices", len(devices)).Msg("local devices refreshed")
}
