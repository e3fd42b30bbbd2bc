package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/wicsp/hostsnap/model"
)

// Resolver resolves the host name and a reachable address for it.
type Resolver interface {
	Hostname() (string, error)
	LookupIP(ctx context.Context, hostname string) (string, error)
}

type netResolver struct{}

func (netResolver) Hostname() (string, error) { return os.Hostname() }

// LookupIP prefers a non-loopback address the name resolves to, then the
// first real interface address, then whatever the name resolved to.
func (netResolver) LookupIP(ctx context.Context, hostname string) (string, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, hostname)
	var loopback string
	for _, a := range addrs {
		ip := net.ParseIP(a)
		if ip == nil || ip.To4() == nil {
			continue
		}
		if !ip.IsLoopback() {
			return a, nil
		}
		if loopback == "" {
			loopback = a
		}
	}
	if ip := firstInterfaceIP(); ip != "" {
		return ip, nil
	}
	if loopback != "" {
		return loopback, nil
	}
	if len(addrs) > 0 {
		return addrs[0], nil
	}
	if err == nil {
		err = errors.New("no addresses")
	}
	return "", fmt.Errorf("resolve %s: %w", hostname, err)
}

// firstInterfaceIP returns the first IPv4 address of an up, non-loopback,
// non-virtual interface.
func firstInterfaceIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		// Skip virtual and container interfaces.
		name := strings.ToLower(iface.Name)
		if strings.HasPrefix(name, "docker") ||
			strings.HasPrefix(name, "veth") ||
			strings.HasPrefix(name, "br-") ||
			strings.HasPrefix(name, "cni") ||
			strings.HasPrefix(name, "flannel") ||
			strings.HasPrefix(name, "cali") ||
			strings.HasPrefix(name, "utun") {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ip, _, err := net.ParseCIDR(addr.String())
			if err != nil || ip.To4() == nil {
				continue
			}
			if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			return ip.String()
		}
	}
	return ""
}

// SystemInfo returns the host identity. Required fields fall back to
// model.Unknown; only Uptime may be nil.
func (c *Collector) SystemInfo(ctx context.Context) model.SystemInfo {
	info := model.SystemInfo{
		Hostname:       model.Unknown,
		IPAddress:      model.Unknown,
		Platform:       platformName(c.goos),
		RuntimeVersion: runtime.Version(),
		CurrentTime:    c.now(),
	}

	if hostname, err := c.resolver.Hostname(); err != nil || hostname == "" {
		c.log.Warn().Err(err).Msg("hostname unavailable")
	} else {
		info.Hostname = hostname
		lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
		ip, err := c.resolver.LookupIP(lookupCtx, hostname)
		cancel()
		if err != nil || ip == "" {
			c.log.Warn().Err(err).Str("hostname", hostname).Msg("ip address unavailable")
		} else {
			info.IPAddress = ip
		}
	}

	info.PlatformVersion = c.factString(ctx, "platform_version", c.facts.KernelVersion, "")
	info.Architecture = c.factString(ctx, "architecture", c.facts.KernelArch, runtime.GOARCH)
	info.Processor = c.factString(ctx, "processor", c.facts.CPUModel, "")

	if up, ok := collectFirst(ctx, c, MetricUptime, c.strategy.Uptime); ok {
		info.Uptime = &up
	}
	return info
}

// factString returns fn's answer, else fallback, else model.Unknown.
func (c *Collector) factString(ctx context.Context, field string, fn func(context.Context) (string, error), fallback string) string {
	v, err := fn(ctx)
	v = strings.TrimSpace(v)
	if err == nil && v != "" {
		return v
	}
	c.log.Warn().Str("field", field).Err(err).Msg("host lookup failed")
	if fallback != "" {
		return fallback
	}
	return model.Unknown
}

// platformName turns a GOOS value into the conventional system name.
func platformName(goos string) string {
	switch goos {
	case "":
		return model.Unknown
	case "darwin":
		return "Darwin"
	case "linux":
		return "Linux"
	case "freebsd":
		return "FreeBSD"
	}
	return strings.ToUpper(goos[:1]) + goos[1:]
}
