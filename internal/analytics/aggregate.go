// Package analytics derives dashboard figures from monitor run history.
// Everything here is a pure function of its inputs; days and hours are
// bucketed in UTC.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/monitor"
)

// AllMonitors selects every monitor.
const AllMonitors = "all"

const dayLayout = "2006-01-02"

type Totals struct {
	Monitors        int `json:"monitors"`
	Tests           int `json:"tests"`
	TotalRequests   int `json:"total_requests"`
	SuccessRequests int `json:"success_requests"`
	FailedRequests  int `json:"failed_requests"`
}

type DailyResponseTime struct {
	Date    string `json:"date"`
	AvgTime int64  `json:"avg_time"`
}

type DailySuccessRate struct {
	Date        string `json:"date"`
	SuccessRate int64  `json:"success_rate"`
	Success     int    `json:"success"`
	Failure     int    `json:"failure"`
}

type StatusBucket struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type MonitorPerformance struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	SuccessRate     float64 `json:"success_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
	TotalRequests   int     `json:"total_requests"`
	LastStatus      string  `json:"last_status"`
	LastSuccess     bool    `json:"last_success"`
}

type HourBucket struct {
	Hour        int   `json:"hour"`
	Count       int   `json:"count"`
	AvgResponse int64 `json:"avgResponse"`
}

type PeakTime struct {
	Hour          int    `json:"hour"`
	Count         int    `json:"count"`
	FormattedHour string `json:"formattedHour"`
}

type Report struct {
	Start              time.Time            `json:"start"`
	Monitor            string               `json:"monitor"`
	Totals             Totals               `json:"totals"`
	ResponseTimes      []DailyResponseTime  `json:"response_times"`
	SuccessRates       []DailySuccessRate   `json:"success_rates"`
	StatusDistribution []StatusBucket       `json:"status_distribution"`
	MonitorPerformance []MonitorPerformance `json:"monitor_performance"`
	UptimePercentage   int64                `json:"uptime_percentage"`
	PerformanceScore   int64                `json:"performance_score"`
	PeakTimes          []PeakTime           `json:"peak_times"`
	HourlyDistribution []HourBucket         `json:"hourly_distribution"`
}

// Select returns the monitors matching filter: a monitor id, or AllMonitors
// (or "") for every monitor.
func Select(monitors []*monitor.Monitor, filter string) []*monitor.Monitor {
	if filter == "" || filter == AllMonitors {
		return monitors
	}
	var out []*monitor.Monitor
	for _, m := range monitors {
		if m.ID == filter {
			out = append(out, m)
		}
	}
	return out
}

// InRange returns the entries stamped strictly after start, newest first as
// stored. Entries without a timestamp are skipped.
func InRange(history []monitor.Entry, start time.Time) []monitor.Entry {
	var out []monitor.Entry
	for _, e := range history {
		if e.HasTimestamp() && e.Timestamp.After(start) {
			out = append(out, e)
		}
	}
	return out
}

type dayAcc struct {
	count, success, failure int
	total                   int64
}

// Aggregate builds the dashboard report for the selected monitors over
// entries newer than start.
func Aggregate(monitors []*monitor.Monitor, start time.Time, filter string) Report {
	if filter == "" {
		filter = AllMonitors
	}
	selected := Select(monitors, filter)

	tests := map[string]struct{}{}
	for _, m := range selected {
		tests[m.TestID] = struct{}{}
	}

	rep := Report{
		Start:              start.UTC(),
		Monitor:            filter,
		Totals:             Totals{Monitors: len(selected), Tests: len(tests)},
		ResponseTimes:      []DailyResponseTime{},
		SuccessRates:       []DailySuccessRate{},
		MonitorPerformance: []MonitorPerformance{},
	}

	var (
		statuses    = map[byte]int{}
		days        = map[string]*dayAcc{}
		hourCount   [24]int
		hourTotal   [24]int64
		sumRate     float64
		sumAvgRT    float64
		withHistory int
	)

	for _, m := range selected {
		entries := InRange(m.History, start)
		if len(entries) == 0 {
			continue
		}
		withHistory++

		var ok int
		var rt int64
		for _, e := range entries {
			rep.Totals.TotalRequests++
			if e.Success {
				rep.Totals.SuccessRequests++
				ok++
			} else {
				rep.Totals.FailedRequests++
			}
			statuses[statusDigit(e.Status)]++
			rt += e.ResponseTime

			ts := e.Timestamp.UTC()
			h := ts.Hour()
			hourCount[h]++
			hourTotal[h] += e.ResponseTime

			key := ts.Format(dayLayout)
			d := days[key]
			if d == nil {
				d = &dayAcc{}
				days[key] = d
			}
			d.count++
			d.total += e.ResponseTime
			if e.Success {
				d.success++
			} else {
				d.failure++
			}
		}

		n := float64(len(entries))
		rate := float64(ok) / n * 100
		avg := float64(rt) / n
		sumRate += rate
		sumAvgRT += avg

		last := "N/A"
		if entries[0].Status != 0 {
			last = strconv.Itoa(entries[0].Status)
		}
		rep.MonitorPerformance = append(rep.MonitorPerformance, MonitorPerformance{
			ID:              m.ID,
			Name:            m.Name,
			SuccessRate:     rate,
			AvgResponseTime: avg,
			TotalRequests:   len(entries),
			LastStatus:      last,
			LastSuccess:     entries[0].Success,
		})
	}

	rep.HourlyDistribution = make([]HourBucket, 24)
	for h := range rep.HourlyDistribution {
		b := HourBucket{Hour: h, Count: hourCount[h]}
		if b.Count > 0 {
			b.AvgResponse = round(float64(hourTotal[h]) / float64(b.Count))
		}
		rep.HourlyDistribution[h] = b
	}
	rep.PeakTimes = peakTimes(rep.HourlyDistribution, 3)

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d := days[k]
		rep.ResponseTimes = append(rep.ResponseTimes, DailyResponseTime{
			Date:    k,
			AvgTime: round(float64(d.total) / float64(d.count)),
		})
		rep.SuccessRates = append(rep.SuccessRates, DailySuccessRate{
			Date:        k,
			SuccessRate: round(float64(d.success) / float64(d.success+d.failure) * 100),
			Success:     d.success,
			Failure:     d.failure,
		})
	}

	rep.StatusDistribution = statusBuckets(statuses)

	sort.SliceStable(rep.MonitorPerformance, func(i, j int) bool {
		return rep.MonitorPerformance[i].SuccessRate > rep.MonitorPerformance[j].SuccessRate
	})

	rep.UptimePercentage = Uptime(rep.Totals.SuccessRequests, rep.Totals.TotalRequests)
	if withHistory > 0 {
		rep.PerformanceScore = Score(sumRate/float64(withHistory), sumAvgRT/float64(withHistory))
	}
	return rep
}

// Uptime is the success share in percent; an empty window counts as 100.
func Uptime(success, total int) int64 {
	if total == 0 {
		return 100
	}
	return round(float64(success) / float64(total) * 100)
}

// Score blends the mean success rate (60%) with a response time score (40%)
// that loses one point per 10ms and bottoms out at 0.
func Score(meanSuccessRate, meanResponseTime float64) int64 {
	rtScore := math.Max(0, 100-meanResponseTime/10)
	return round(meanSuccessRate*0.6 + rtScore*0.4)
}

func statusDigit(status int) byte {
	if status <= 0 {
		return '0'
	}
	return strconv.Itoa(status)[0]
}

var statusLabels = map[byte]string{
	'2': "2xx (Success)",
	'3': "3xx (Redirect)",
	'4': "4xx (Client Error)",
	'5': "5xx (Server Error)",
}

// statusBuckets orders the known classes by digit and folds every other
// digit into a trailing "Other" bucket.
func statusBuckets(counts map[byte]int) []StatusBucket {
	out := []StatusBucket{}
	other := 0
	for d := byte('0'); d <= '9'; d++ {
		n := counts[d]
		if n == 0 {
			continue
		}
		if label, ok := statusLabels[d]; ok {
			out = append(out, StatusBucket{Status: label, Count: n})
		} else {
			other += n
		}
	}
	if other > 0 {
		out = append(out, StatusBucket{Status: "Other", Count: other})
	}
	return out
}

func peakTimes(hours []HourBucket, n int) []PeakTime {
	sorted := append([]HourBucket(nil), hours...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]PeakTime, 0, len(sorted))
	for _, h := range sorted {
		out = append(out, PeakTime{
			Hour:          h.Hour,
			Count:         h.Count,
			FormattedHour: fmt.Sprintf("%d:00 - %d:00", h.Hour, h.Hour+1),
		})
	}
	return out
}

func round(f float64) int64 { return int64(math.Round(f)) }
