// Package export renders a snapshot for other tools to pick up.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wicsp/hostsnap/model"
)

const namespace = "hostsnap"

// Registry builds a registry holding the snapshot as gauges. The registry is
// fresh per call; nothing is served or retained.
func Registry(snap model.Snapshot) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "host_info",
		Help: "Host identity; the value is always 1.",
	}, []string{"hostname", "platform", "platform_version", "architecture", "runtime_version"})
	taken := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "snapshot_timestamp_seconds",
		Help: "Unix time the snapshot was taken.",
	})
	memBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "memory_bytes",
		Help: "Memory in bytes by kind (total, available, used).",
	}, []string{"kind"})
	memPct := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "memory_used_percent",
		Help: "Used memory as a percentage of total.",
	})
	cpuPct := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "cpu_used_percent",
		Help: "Aggregate CPU busy percentage.",
	})
	corePct := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "cpu_core_used_percent",
		Help: "Per-core CPU busy percentage.",
	}, []string{"core"})
	loadAvg := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "load_average",
		Help: "System load average by window.",
	}, []string{"window"})
	diskBytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "disk_bytes",
		Help: "Filesystem size in bytes by kind (total, used, free).",
	}, []string{"device", "mountpoint", "fstype", "kind"})
	diskPct := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "disk_used_percent",
		Help: "Filesystem capacity used, as reported by the source.",
	}, []string{"device", "mountpoint", "fstype"})
	procs := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "processes",
		Help: "Number of processes in the snapshot.",
	})

	for _, c := range []prometheus.Collector{info, taken, memBytes, memPct, cpuPct, corePct, loadAvg, diskBytes, diskPct, procs} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register gauge: %w", err)
		}
	}

	sys := snap.System
	info.WithLabelValues(labels(sys.Hostname, sys.Platform, sys.PlatformVersion, sys.Architecture, sys.RuntimeVersion)...).Set(1)
	taken.Set(float64(snap.Timestamp.UnixNano()) / 1e9)

	memBytes.WithLabelValues("total").Set(float64(snap.Memory.Total))
	memBytes.WithLabelValues("available").Set(float64(snap.Memory.Available))
	memBytes.WithLabelValues("used").Set(float64(snap.Memory.Used))
	memPct.Set(snap.Memory.Percent)

	cpuPct.Set(snap.CPU.Percent)
	for i, v := range snap.CPU.Cores {
		corePct.WithLabelValues(strconv.Itoa(i)).Set(v)
	}
	for i, window := range []string{"1m", "5m", "15m"} {
		loadAvg.WithLabelValues(window).Set(snap.CPU.LoadAvg[i])
	}

	for _, d := range snap.Disks {
		l := labels(d.Device, d.Mountpoint, d.Filesystem)
		diskBytes.WithLabelValues(append(l, "total")...).Set(float64(d.Total))
		diskBytes.WithLabelValues(append(l, "used")...).Set(float64(d.Used))
		diskBytes.WithLabelValues(append(l, "free")...).Set(float64(d.Free))
		diskPct.WithLabelValues(l...).Set(d.Percent)
	}
	procs.Set(float64(len(snap.Processes)))
	return reg, nil
}

// labels makes values safe to use as label values. Mountpoints and device
// names are raw bytes from the kernel and need not be UTF-8, which
// WithLabelValues rejects with a panic.
func labels(values ...string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToValidUTF8(v, "\uFFFD")
	}
	return out
}

// WriteTextfile writes the snapshot to path in the Prometheus text format,
// atomically, for node_exporter's textfile collector.
func WriteTextfile(path string, snap model.Snapshot) error {
	reg, err := Registry(snap)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write textfile %s: %w", path, err)
	}
	return nil
}
