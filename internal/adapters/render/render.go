// Package render serializes weekly series into delimited data files plus a
// gnuplot script for the external charting tool.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/flowlens/internal/domain/model"
)

// WriteSeries writes one tab-delimited row per week: RFC3339 week start,
// per-stage counts in configured order, per-stage P90 ages in configured
// order as integer seconds, throughput. An absent P90 is an empty field,
// never zero. A #-prefixed header names the columns.
func WriteSeries(w io.Writer, stages []string, records []model.WeeklyMetrics) error {
	var b strings.Builder
	b.WriteString("# week")
	for _, s := range stages {
		fmt.Fprintf(&b, "\tcount %q", s)
	}
	for _, s := range stages {
		fmt.Fprintf(&b, "\tp90_seconds %q", s)
	}
	b.WriteString("\tthroughput\n")

	for _, rec := range records {
		b.WriteString(rec.Week.Format(time.RFC3339))
		for _, s := range stages {
			b.WriteByte('\t')
			b.WriteString(strconv.Itoa(rec.Counts[s]))
		}
		for _, s := range stages {
			b.WriteByte('\t')
			if age, ok := rec.P90Age[s]; ok {
				b.WriteString(strconv.FormatInt(int64(age/time.Second), 10))
			}
		}
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(rec.Throughput))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ParseSeries reads the WriteSeries format back. The stage list must match
// the one the file was written with; it fixes the column layout.
func ParseSeries(r io.Reader, stages []string) ([]model.WeeklyMetrics, error) {
	want := 1 + 2*len(stages) + 1
	var out []model.WeeklyMetrics

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != want {
			return nil, fmt.Errorf("line %d: got %d fields, want %d: %w", line, len(fields), want, ErrBadRecord)
		}

		week, err := time.Parse(time.RFC3339, fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad week %q: %w", line, fields[0], ErrBadRecord)
		}
		rec := model.WeeklyMetrics{
			Week:   week,
			Counts: make(map[string]int, len(stages)),
			P90Age: make(map[string]time.Duration),
		}
		for i, s := range stages {
			c, err := strconv.Atoi(fields[1+i])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad count %q: %w", line, fields[1+i], ErrBadRecord)
			}
			rec.Counts[s] = c
		}
		for i, s := range stages {
			field := fields[1+len(stages)+i]
			if field == "" {
				continue
			}
			secs, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad age %q: %w", line, field, ErrBadRecord)
			}
			rec.P90Age[s] = time.Duration(secs) * time.Second
		}
		tp, err := strconv.Atoi(fields[want-1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad throughput %q: %w", line, fields[want-1], ErrBadRecord)
		}
		rec.Throughput = tp
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading series: %w", err)
	}
	return out, nil
}
