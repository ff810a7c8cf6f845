// Package history reads and writes round outcome history as CSV.
//
// Files carry a header naming at least a time and a color column. English
// (time, color) and Portuguese (horario, cor) headers are accepted, as are
// color names in either language. A file without a recognised header is
// read as time,color.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// Header is written by WriteCSV.
var Header = []string{"id", "time", "color"}

type columns struct {
	id, time, color int
}

func detect(row []string) (columns, bool) {
	c := columns{id: -1, time: -1, color: -1}
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id", "round_id":
			c.id = i
		case "time", "horario", "rolled_at", "created_at":
			c.time = i
		case "color", "cor":
			c.color = i
		}
	}
	return c, c.time >= 0 && c.color >= 0
}

// ParseTime accepts RFC 3339 and the day-first layouts used by exported
// game history, interpreting zone-less values in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable time %q", domain.ErrMalformedEvent, s)
}

// Result is the outcome of ReadCSV.
type Result struct {
	Rounds  []domain.Round
	Skipped int
}

// ReadCSV parses rounds from r. Rows whose time or color does not parse
// (advert rows in exported sheets, for instance) are counted and skipped.
func ReadCSV(r io.Reader, loc *time.Location) (Result, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		res    Result
		cols   = columns{id: -1, time: 0, color: 1}
		header = true
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("history: read csv: %w", err)
		}
		if header {
			header = false
			if c, ok := detect(row); ok {
				cols = c
				continue
			}
		}

		round, ok := parseRow(row, cols, loc)
		if !ok {
			res.Skipped++
			continue
		}
		res.Rounds = append(res.Rounds, round)
	}
}

func parseRow(row []string, c columns, loc *time.Location) (domain.Round, bool) {
	if c.time >= len(row) || c.color >= len(row) {
		return domain.Round{}, false
	}
	t, err := ParseTime(row[c.time], loc)
	if err != nil {
		return domain.Round{}, false
	}
	color, err := domain.ParseColor(row[c.color])
	if err != nil {
		return domain.Round{}, false
	}
	r := domain.Round{Color: color, RolledAt: t}
	if c.id >= 0 && c.id < len(row) {
		r.ID = strings.TrimSpace(row[c.id])
	}
	return r, true
}

// WriteCSV writes rounds with Header.
func WriteCSV(w io.Writer, rounds []domain.Round) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("history: write header: %w", err)
	}
	for _, r := range rounds {
		rec := []string{r.ID, r.RolledAt.UTC().Format(time.RFC3339Nano), r.Color.String()}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("history: write round %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
