package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"musicrec/internal/domain"
)

func sameTrack(a, b domain.Track) bool {
	return a.ID == b.ID && a.Filename == b.Filename && a.Genre == b.Genre && a.FilePath == b.FilePath
}

func TestReadCSV(t *testing.T) {
	in := "id,filename,label,filepath\n" +
		"7,blues.00000.wav,blues,blues/blues.00000.wav\n" +
		"8,jazz.00001.wav,Jazz,jazz/jazz.00001.wav\n"

	tracks, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}

	want := domain.Track{ID: 8, Filename: "jazz.00001.wav", Genre: domain.Jazz, FilePath: "jazz/jazz.00001.wav"}
	if !sameTrack(tracks[1], want) {
		t.Errorf("tracks[1] = %+v, want %+v", tracks[1], want)
	}
}

func TestReadCSV_ColumnOrderAndMissingID(t *testing.T) {
	in := "\ufefflabel, filepath ,filename\n" +
		"rock,rock/rock.00003.wav,rock.00003.wav\n" +
		"pop,pop/pop.00004.wav,pop.00004.wav\n"

	tracks, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	for i, tr := range tracks {
		if tr.ID != int64(i+1) {
			t.Errorf("tracks[%d].ID = %d, want %d", i, tr.ID, i+1)
		}
	}
	if tracks[0].Genre != domain.Rock || tracks[0].Filename != "rock.00003.wav" {
		t.Errorf("unexpected first track: %+v", tracks[0])
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		missingFlag bool
	}{
		{"empty", "", true},
		{"no label column", "id,filename,filepath\n1,a.wav,x/a.wav\n", true},
		{"no filepath column", "filename,label\na.wav,blues\n", true},
		{"bad id", "id,filename,label,filepath\nx,a.wav,blues,blues/a.wav\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, domain.ErrMissingField); got != tt.missingFlag {
				t.Errorf("errors.Is(ErrMissingField) = %v, want %v (err: %v)", got, tt.missingFlag, err)
			}
		})
	}
}

func TestReadCSV_EmptyCellsPassThrough(t *testing.T) {
	in := "id,filename,label,filepath\n1,,blues,blues/a.wav\n"

	tracks, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if tracks[0].Filename != "" {
		t.Errorf("Filename = %q, want empty", tracks[0].Filename)
	}
}

func TestWriteAndLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "gtzan_data.csv")
	tracks := []domain.Track{
		{ID: 1, Filename: "blues.00000.wav", Genre: domain.Blues, FilePath: "blues/blues.00000.wav"},
		{ID: 2, Filename: "hip, hop.wav", Genre: domain.HipHop, FilePath: "hiphop/hip, hop.wav"},
	}

	if err := WriteCSV(path, tracks); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	got, err := CSVSource{Path: path}.Tracks()
	if err != nil {
		t.Fatalf("Tracks() error = %v", err)
	}
	if len(got) != len(tracks) {
		t.Fatalf("got %d tracks, want %d", len(got), len(tracks))
	}
	for i := range tracks {
		if !sameTrack(got[i], tracks[i]) {
			t.Errorf("track %d = %+v, want %+v", i, got[i], tracks[i])
		}
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestScanner(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"jazz/jazz.00001.wav",
		"jazz/jazz.00000.wav",
		"blues/blues.00000.wav",
		"blues/notes.txt",
		"blues/.hidden.wav",
		"stray.wav",
		"rock/live/rock.00000.wav",
	}
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("RIFF"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tracks, err := NewScanner(nil, []string{"**/.*"}).Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []domain.Track{
		{ID: 1, Filename: "blues.00000.wav", Genre: domain.Blues, FilePath: "blues/blues.00000.wav"},
		{ID: 2, Filename: "jazz.00000.wav", Genre: domain.Jazz, FilePath: "jazz/jazz.00000.wav"},
		{ID: 3, Filename: "jazz.00001.wav", Genre: domain.Jazz, FilePath: "jazz/jazz.00001.wav"},
	}
	if len(tracks) != len(want) {
		t.Fatalf("got %d tracks (%+v), want %d", len(tracks), tracks, len(want))
	}
	for i := range want {
		if !sameTrack(tracks[i], want[i]) {
			t.Errorf("track %d = %+v, want %+v", i, tracks[i], want[i])
		}
	}
}

func TestScanner_MissingRoot(t *testing.T) {
	_, err := NewScanner(nil, nil).Scan(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for missing root")
	}
}
