/*
Package system reports process and host health for the /health endpoint.
*/
package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// memoryPressurePercent is the host memory usage above which a warning is attached.
const memoryPressurePercent = 90.0

// Service represents a component that can describe its own health.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string
}

// Options describes the static facts reported alongside runtime stats.
type Options struct {
	APIConfigured bool
	Model         string
}

type service struct {
	opts    Options
	started time.Time
	pid     int32
}

func NewService(opts Options) Service {
	return &service{
		opts:    opts,
		started: time.Now(),
		pid:     int32(os.Getpid()),
	}
}

// Health checks the health of the running process.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := map[string]string{
		"status":         "up",
		"uptime":         time.Since(s.started).Round(time.Second).String(),
		"api_configured": strconv.FormatBool(s.opts.APIConfigured),
		"model":          s.opts.Model,
		"goroutines":     strconv.Itoa(runtime.NumGoroutine()),
	}

	if !s.opts.APIConfigured {
		stats["message"] = "No API key configured; meal plan generation will fail."
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read host memory stats")
	} else {
		stats["host_memory_total"] = humanize.Bytes(vm.Total)
		stats["host_memory_available"] = humanize.Bytes(vm.Available)
		stats["host_memory_used_percent"] = fmt.Sprintf("%.1f", vm.UsedPercent)
		if vm.UsedPercent > memoryPressurePercent {
			stats["message"] = "The host is under heavy memory pressure."
		}
	}

	proc, err := process.NewProcessWithContext(ctx, s.pid)
	if err == nil {
		var info *process.MemoryInfoStat
		info, err = proc.MemoryInfoWithContext(ctx)
		if err == nil {
			stats["process_rss"] = humanize.Bytes(info.RSS)
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read process memory stats")
	}

	return stats
}
