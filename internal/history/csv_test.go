package history

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/marcelohmariano/blade/internal/domain"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantColors  []domain.Color
		wantSkipped int
	}{
		{
			name:       "english header",
			input:      "time,color\n2024-05-01T10:00:00Z,red\n2024-05-01T10:00:30Z,0\n",
			wantColors: []domain.Color{domain.ColorRed, domain.ColorWhite},
		},
		{
			name:        "exported sheet with advert row",
			input:       "Cor,Horario\npreto,01/05/2024 10:01\ntipminer.com,01/05/2024 10:02\nbranco,01/05/2024 10:03\n",
			wantColors:  []domain.Color{domain.ColorBlack, domain.ColorWhite},
			wantSkipped: 1,
		},
		{
			name:       "no header",
			input:      "2024-05-01 10:00:00,vermelho\n",
			wantColors: []domain.Color{domain.ColorRed},
		},
		{
			name:        "short row",
			input:       "time,color\n2024-05-01 10:00:00\n",
			wantSkipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ReadCSV(strings.NewReader(tt.input), time.UTC)
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}
			if len(res.Rounds) != len(tt.wantColors) {
				t.Fatalf("len(rounds) = %d, want %d", len(res.Rounds), len(tt.wantColors))
			}
			for i, c := range tt.wantColors {
				if res.Rounds[i].Color != c {
					t.Errorf("rounds[%d].Color = %v, want %v", i, res.Rounds[i].Color, c)
				}
			}
			if res.Skipped != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", res.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestParseTimeDayFirst(t *testing.T) {
	got, err := ParseTime("02/01/2024 15:04", time.UTC)
	if err != nil {
		t.Fatalf("ParseTime() error = %v", err)
	}
	want := time.Date(2024, time.January, 2, 15, 4, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTime() = %v, want %v", got, want)
	}
}

func TestWriteThenReadCSV(t *testing.T) {
	in := []domain.Round{
		{ID: "a", Color: domain.ColorBlack, RolledAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "b", Color: domain.ColorWhite, RolledAt: time.Date(2024, 5, 1, 10, 0, 30, 0, time.UTC)},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	res, err := ReadCSV(&buf, time.UTC)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(res.Rounds) != len(in) {
		t.Fatalf("len(rounds) = %d, want %d", len(res.Rounds), len(in))
	}
	for i := range in {
		got := res.Rounds[i]
		if got.ID != in[i].ID || got.Color != in[i].Color || !got.RolledAt.Equal(in[i].RolledAt) {
			t.Errorf("rounds[%d] = %+v, want %+v", i, got, in[i])
		}
	}
}
