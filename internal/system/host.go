// Package system inspects the machine a batch runs on.
package system

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Snapshot collects host name, platform, CPU count and memory. Fields that
// cannot be read are left empty and their errors are joined in the result.
func Snapshot(ctx context.Context) (domain.HostInfo, error) {
	info := domain.HostInfo{
		Arch:        runtime.GOARCH,
		LogicalCPUs: runtime.NumCPU(),
	}
	var errs []error

	if h, err := host.InfoWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("host info: %w", err))
	} else {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		if h.PlatformVersion != "" {
			info.Platform += " " + h.PlatformVersion
		}
		if h.KernelArch != "" {
			info.Arch = h.KernelArch
		}
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		errs = append(errs, fmt.Errorf("cpu count: %w", err))
	} else if n > 0 {
		info.LogicalCPUs = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		info.TotalMemory = vm.Total
		info.AvailMemory = vm.Available
	}

	return info, errors.Join(errs...)
}
