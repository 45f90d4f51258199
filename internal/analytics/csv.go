package analytics

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/apiwatch/internal/domain/monitor"
)

const (
	CSVHeader      = "Monitor Name,Date,Status,Response Time (ms),Success\n"
	csvTimeLayout  = "2006-01-02 15:04:05"
	CSVContentType = "text/csv;charset=utf-8"
)

// Filename is the download name for an export made at now.
func Filename(now time.Time) string {
	return "api-analytics-" + now.UTC().Format(dayLayout) + ".csv"
}

// WriteCSV writes one row per in-range entry of the selected monitors and
// returns the number of rows. Only the name column is quoted.
func WriteCSV(w io.Writer, monitors []*monitor.Monitor, start time.Time, filter string) (int, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader); err != nil {
		return 0, err
	}

	rows := 0
	for _, m := range Select(monitors, filter) {
		name := `"` + strings.ReplaceAll(m.Name, `"`, `""`) + `"`
		for _, e := range InRange(m.History, start) {
			status := "N/A"
			if e.Status != 0 {
				status = strconv.Itoa(e.Status)
			}
			outcome := "Failure"
			if e.Success {
				outcome = "Success"
			}
			line := strings.Join([]string{
				name,
				e.Timestamp.UTC().Format(csvTimeLayout),
				status,
				strconv.FormatInt(e.ResponseTime, 10),
				outcome,
			}, ",")
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return rows, err
			}
			rows++
		}
	}
	return rows, bw.Flush()
}
