package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wicsp/hostsnap/collector"
	"github.com/wicsp/hostsnap/ui"
)

// CheckStatus represents the severity of a doctor check result.
type CheckStatus int

const (
	CheckOK   CheckStatus = 0
	CheckWarn CheckStatus = 1
	CheckCrit CheckStatus = 2
)

func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "OK"
	case CheckWarn:
		return "WARN"
	case CheckCrit:
		return "CRIT"
	}
	return "UNKNOWN"
}

func (s CheckStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CheckStatus) UnmarshalText(text []byte) error {
	for _, v := range []CheckStatus{CheckOK, CheckWarn, CheckCrit} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", text)
}

// MetricCheck summarises one metric's source chain.
// OK: the preferred source works. WARN: only a fallback works.
// CRIT: nothing works and the metric will be reported as zero.
type MetricCheck struct {
	Metric  string                  `json:"metric" yaml:"metric"`
	Status  CheckStatus             `json:"status" yaml:"status"`
	Sources []collector.SourceCheck `json:"sources" yaml:"sources"`
}

// DoctorReport holds the full source check output.
type DoctorReport struct {
	Timestamp   time.Time     `json:"timestamp" yaml:"timestamp"`
	Platform    string        `json:"platform" yaml:"platform"`
	Checks      []MetricCheck `json:"checks" yaml:"checks"`
	WorstStatus CheckStatus   `json:"worst_status" yaml:"worst_status"`
}

func buildDoctorReport(platform string, checks []collector.SourceCheck, now time.Time) DoctorReport {
	report := DoctorReport{Timestamp: now, Platform: platform}
	byMetric := map[string]*MetricCheck{}
	for _, m := range collector.Metrics {
		report.Checks = append(report.Checks, MetricCheck{Metric: string(m), Status: CheckCrit})
	}
	for i := range report.Checks {
		byMetric[report.Checks[i].Metric] = &report.Checks[i]
	}
	for _, c := range checks {
		mc, ok := byMetric[string(c.Metric)]
		if !ok {
			continue
		}
		mc.Sources = append(mc.Sources, c)
	}
	for i := range report.Checks {
		mc := &report.Checks[i]
		for j, s := range mc.Sources {
			if !s.OK {
				continue
			}
			if j == 0 {
				mc.Status = CheckOK
			} else {
				mc.Status = CheckWarn
			}
			break
		}
		if mc.Status > report.WorstStatus {
			report.WorstStatus = mc.Status
		}
	}
	return report
}

func renderDoctor(r ui.Renderer, report DoctorReport) string {
	rows := make([][]string, 0, len(report.Checks))
	for _, mc := range report.Checks {
		var parts []string
		for _, s := range mc.Sources {
			if s.OK {
				parts = append(parts, fmt.Sprintf("%s ok (%s)", s.Source, s.Duration.Round(time.Millisecond)))
			} else {
				parts = append(parts, fmt.Sprintf("%s failed: %s", s.Source, s.Error))
			}
		}
		detail := strings.Join(parts, "; ")
		if detail == "" {
			detail = "no sources for this platform"
		}
		rows = append(rows, []string{mc.Metric + " " + mc.Status.String(), detail})
	}
	title := fmt.Sprintf("Doctor (%s): %s", report.Platform, report.WorstStatus)
	return r.KeyValues(title, "METRIC", "SOURCES", rows)
}

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run every data source and report which ones work on this host",
		Long: `Run every source of every metric chain in isolation. A metric is OK when
its preferred source works, WARN when only a fallback works and CRIT when
nothing works. Exits with status 1 if any metric is CRIT.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := a.collector.CheckSources(cmd.Context())
			report := buildDoctorReport(a.collector.Platform(), checks, time.Now())
			if err := a.emit(report, func(r ui.Renderer) string { return renderDoctor(r, report) }); err != nil {
				return err
			}
			if report.WorstStatus == CheckCrit {
				return fmt.Errorf("one or more metrics have no working source")
			}
			return nil
		},
	}
}
