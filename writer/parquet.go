// Package writer persists the joined frame as a Parquet file and optionally
// publishes the artifact to S3.
package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/dobbobalina2/Crypto-US-yields/logger"
	"github.com/dobbobalina2/Crypto-US-yields/models"
)

// joinedRecord mirrors models.JoinedRow for the Parquet schema. Every
// column except date is OPTIONAL so missing cells survive the round trip.
type joinedRecord struct {
	Date int64 `parquet:"name=date, type=INT64, convertedtype=TIMESTAMP_MILLIS"`

	AaveSupplyAPY *float64 `parquet:"name=aave_supply_apy, type=DOUBLE, repetitiontype=OPTIONAL"`
	AaveBorrowAPY *float64 `parquet:"name=aave_borrow_apy, type=DOUBLE, repetitiontype=OPTIONAL"`

	Yield6M  *float64 `parquet:"name=yield_6m, type=DOUBLE, repetitiontype=OPTIONAL"`
	Yield2Y  *float64 `parquet:"name=yield_2y, type=DOUBLE, repetitiontype=OPTIONAL"`
	Yield5Y  *float64 `parquet:"name=yield_5y, type=DOUBLE, repetitiontype=OPTIONAL"`
	Yield10Y *float64 `parquet:"name=yield_10y, type=DOUBLE, repetitiontype=OPTIONAL"`

	SupplyMinus6M  *float64 `parquet:"name=supply_minus_yield_6m, type=DOUBLE, repetitiontype=OPTIONAL"`
	SupplyMinus2Y  *float64 `parquet:"name=supply_minus_yield_2y, type=DOUBLE, repetitiontype=OPTIONAL"`
	SupplyMinus5Y  *float64 `parquet:"name=supply_minus_yield_5y, type=DOUBLE, repetitiontype=OPTIONAL"`
	SupplyMinus10Y *float64 `parquet:"name=supply_minus_yield_10y, type=DOUBLE, repetitiontype=OPTIONAL"`

	BorrowMinus6M  *float64 `parquet:"name=borrow_minus_yield_6m, type=DOUBLE, repetitiontype=OPTIONAL"`
	BorrowMinus2Y  *float64 `parquet:"name=borrow_minus_yield_2y, type=DOUBLE, repetitiontype=OPTIONAL"`
	BorrowMinus5Y  *float64 `parquet:"name=borrow_minus_yield_5y, type=DOUBLE, repetitiontype=OPTIONAL"`
	BorrowMinus10Y *float64 `parquet:"name=borrow_minus_yield_10y, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func toRecord(row models.JoinedRow) joinedRecord {
	return joinedRecord{
		Date:           row.Date.UnixMilli(),
		AaveSupplyAPY:  row.SupplyAPY,
		AaveBorrowAPY:  row.BorrowAPY,
		Yield6M:        row.Yield6M,
		Yield2Y:        row.Yield2Y,
		Yield5Y:        row.Yield5Y,
		Yield10Y:       row.Yield10Y,
		SupplyMinus6M:  row.SupplyMinus6M,
		SupplyMinus2Y:  row.SupplyMinus2Y,
		SupplyMinus5Y:  row.SupplyMinus5Y,
		SupplyMinus10Y: row.SupplyMinus10Y,
		BorrowMinus6M:  row.BorrowMinus6M,
		BorrowMinus2Y:  row.BorrowMinus2Y,
		BorrowMinus5Y:  row.BorrowMinus5Y,
		BorrowMinus10Y: row.BorrowMinus10Y,
	}
}

// WriteJoinedFrame serializes the frame to a Parquet file at path, creating
// parent directories as needed and overwriting any existing file.
func WriteJoinedFrame(frame models.JoinedFrame, path string, compression string) error {
	log := logger.GetLogger().WithComponent("parquet_writer")

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(joinedRecord), 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	switch compression {
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	case "none":
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	default:
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	}

	for _, row := range frame {
		record := toRecord(row)
		if err := pw.Write(record); err != nil {
			fw.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	log.WithFields(logger.Fields{
		"path": path,
		"rows": len(frame),
	}).Info("parquet file written")
	return nil
}
