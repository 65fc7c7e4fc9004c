package writer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/dobbobalina2/Crypto-US-yields/models"
)

func sampleFrame() models.JoinedFrame {
	return models.JoinedFrame{
		{
			Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			SupplyAPY:      models.Float(5.0),
			BorrowAPY:      models.Float(7.0),
			Yield10Y:       models.Float(4.0),
			BorrowMinus10Y: models.Float(3.0),
		},
		{
			Date:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			SupplyAPY: models.Float(5.5),
			// Everything else missing.
		},
	}
}

func TestWriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.parquet")
	if err := WriteJoinedFrame(sampleFrame(), path, "snappy"); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty parquet file")
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if err := WriteJoinedFrame(sampleFrame(), path, "none"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data[:4]) != "PAR1" {
		t.Fatalf("expected parquet magic, got %q", data[:4])
	}
}

func TestRoundTripPreservesNullability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := WriteJoinedFrame(sampleFrame(), path, "snappy"); err != nil {
		t.Fatalf("write: %v", err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(joinedRecord), 1)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer pr.ReadStop()

	if pr.GetNumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", pr.GetNumRows())
	}
	rows := make([]joinedRecord, 2)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read: %v", err)
	}

	if rows[0].BorrowMinus10Y == nil || *rows[0].BorrowMinus10Y != 3.0 {
		t.Fatalf("expected borrow spread 3.0, got %v", rows[0].BorrowMinus10Y)
	}
	if rows[1].AaveBorrowAPY != nil {
		t.Fatalf("expected missing borrow apy, got %v", *rows[1].AaveBorrowAPY)
	}
	wantMillis := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	if rows[1].Date != wantMillis {
		t.Fatalf("expected date %d, got %d", wantMillis, rows[1].Date)
	}
}
