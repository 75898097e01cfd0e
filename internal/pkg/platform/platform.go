// Package platform identifies the host operating system family and
// provides command execution for metric sources that shell out to
// native tooling.
package platform

import (
	"fmt"
	"runtime"
	"time"
)

// Family is the coarse operating system family used to select native
// metric sources. Detection happens once at startup; the family never
// changes for the lifetime of the process.
type Family int

const (
	// Other covers platforms without a native source implementation;
	// probes fall through to portable and simulated tiers
	Other Family = iota

	// Linux selects /proc and df based sources
	Linux

	// MacOS selects sysctl, vm_stat and netstat based sources
	MacOS

	// Windows selects wmic based sources
	Windows
)

// String returns the lowercase family name
func (f Family) String() string {
	switch f {
	case Linux:
		return "linux"
	case MacOS:
		return "macos"
	case Windows:
		return "windows"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler so Family serializes
// as its name in JSON API responses
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Family) UnmarshalText(text []byte) error {
	switch string(text) {
	case "linux":
		*f = Linux
	case "macos":
		*f = MacOS
	case "windows":
		*f = Windows
	case "other":
		*f = Other
	default:
		return fmt.Errorf("unknown platform family %q", string(text))
	}
	return nil
}

// FamilyFromGOOS maps a GOOS value to its Family
func FamilyFromGOOS(goos string) Family {
	switch goos {
	case "linux":
		return Linux
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	default:
		return Other
	}
}

// Current returns the family of the running process
func Current() Family {
	return FamilyFromGOOS(runtime.GOOS)
}

// Info describes the host. Computed once at process start and never
// mutated. Fields that cannot be determined are left at their zero
// value rather than failing detection.
type Info struct {
	Family           Family    `json:"family"`
	OS               string    `json:"os"`
	OSVersion        string    `json:"os_version,omitempty"`
	Architecture     string    `json:"architecture"`
	Hostname         string    `json:"hostname,omitempty"`
	CPUCount         int       `json:"cpu_count"`
	TotalMemoryBytes uint64    `json:"total_memory_bytes,omitempty"`
	DetectedAt       time.Time `json:"detected_at"`
}
