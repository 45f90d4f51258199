package analytics

import (
	"sort"
	"strconv"

	"github.com/NordCoder/apiwatch/internal/domain/monitor"
)

type StatusCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DailyOutcome struct {
	Date    string `json:"date"`
	Success int    `json:"success"`
	Failure int    `json:"failure"`
}

// MonitorCharts is the detail view of one monitor over its retained history.
type MonitorCharts struct {
	Stats         monitor.Stats  `json:"stats"`
	StatusClasses map[string]int `json:"status_classes"`
	StatusCodes   []StatusCount  `json:"status_codes"`
	Daily         []DailyOutcome `json:"daily"`
}

func ChartsFor(m *monitor.Monitor) MonitorCharts {
	c := MonitorCharts{
		Stats:         m.Stats(),
		StatusClasses: map[string]int{"2": 0, "3": 0, "4": 0, "5": 0, "0": 0},
		StatusCodes:   []StatusCount{},
		Daily:         []DailyOutcome{},
	}

	codes := map[int]int{}
	days := map[string]*DailyOutcome{}
	for _, e := range m.History {
		c.StatusClasses[string(statusDigit(e.Status))]++
		status := e.Status
		if status < 0 {
			status = 0
		}
		codes[status]++

		if !e.HasTimestamp() {
			continue
		}
		key := e.Timestamp.UTC().Format(dayLayout)
		d := days[key]
		if d == nil {
			d = &DailyOutcome{Date: key}
			days[key] = d
		}
		if e.Success {
			d.Success++
		} else {
			d.Failure++
		}
	}

	keys := make([]int, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		c.StatusCodes = append(c.StatusCodes, StatusCount{Name: strconv.Itoa(k), Value: codes[k]})
	}
	for _, d := range days {
		c.Daily = append(c.Daily, *d)
	}
	sort.Slice(c.Daily, func(i, j int) bool { return c.Daily[i].Date < c.Daily[j].Date })
	return c
}

type HealthPoint struct {
	Date            string  `json:"date"`
	SuccessRate     float64 `json:"successRate"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	TotalRequests   int     `json:"totalRequests"`
}

// OverallHealth merges every monitor's history by day and keeps the latest
// seven days that have data.
func OverallHealth(monitors []*monitor.Monitor) []HealthPoint {
	days := map[string]*dayAcc{}
	for _, m := range monitors {
		for _, e := range m.History {
			if !e.HasTimestamp() {
				continue
			}
			key := e.Timestamp.UTC().Format(dayLayout)
			d := days[key]
			if d == nil {
				d = &dayAcc{}
				days[key] = d
			}
			d.count++
			d.total += e.ResponseTime
			if e.Success {
				d.success++
			}
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 7 {
		keys = keys[len(keys)-7:]
	}

	out := make([]HealthPoint, 0, len(keys))
	for _, k := range keys {
		d := days[k]
		out = append(out, HealthPoint{
			Date:            k,
			SuccessRate:     float64(d.success) / float64(d.count) * 100,
			AvgResponseTime: float64(d.total) / float64(d.count),
			TotalRequests:   d.count,
		})
	}
	return out
}
