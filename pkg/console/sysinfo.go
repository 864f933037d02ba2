package console

import (
	"runtime"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// Version of the console core, as reported in system-info frames.
var Version = [4]byte{1, 2, 0, 0}

// DeviceID retrieves the unique ID identifying this console.
func DeviceID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "othello-console"
	}
	return id
}

// freeMemory estimates the memory headroom of the process.
func freeMemory() uint32 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	free := m.Sys - m.HeapAlloc
	if free > 0xffffffff {
		free = 0xffffffff
	}
	return uint32(free)
}

// rate converts an event count over an interval to events per second.
func rate(count uint32, over time.Duration) uint16 {
	if over <= 0 {
		return 0
	}
	r := float64(count) / over.Seconds()
	if r > 0xffff {
		r = 0xffff
	}
	return uint16(r)
}
