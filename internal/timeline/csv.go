package timeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{"scene_index", "keyword", "bin_name", "video_index", "src_start", "src_end", "duration_sec", "type", "notes"}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.SceneIndex),
			r.Keyword,
			r.BinName,
			strconv.Itoa(r.VideoIndex),
			seconds(r.SrcStart),
			seconds(r.SrcEnd),
			seconds(r.Duration),
			r.Type,
			r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.SceneIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes rows to path atomically.
func SaveCSV(path string, rows []Row) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, rows)
	})
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(tmp), err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
