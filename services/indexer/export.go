package indexer

import (
	"context"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const exportBatch = 1000

// ParquetEvent is the on-disk layout of an exported event.
type ParquetEvent struct {
	ID         string `parquet:"name=id, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Sequence   int64  `parquet:"name=sequence, type=INT64"`
	Height     int64  `parquet:"name=height, type=INT64"`
	TxHash     string `parquet:"name=tx_hash, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Index      int32  `parquet:"name=log_index, type=INT32"`
	Type       string `parquet:"name=type, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Attributes string `parquet:"name=attributes, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Timestamp  int64  `parquet:"name=timestamp, type=INT64"`
}

// Export writes every indexed event, in log order, to a Parquet file at path
// and returns the number of rows written.
func (s *Store) Export(ctx context.Context, path string) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("indexer: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(ParquetEvent), 1)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("indexer: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	written := 0
	err = s.each(ctx, exportBatch, func(rows []EventRow) error {
		for _, row := range rows {
			if err := pw.Write(&ParquetEvent{
				ID:         row.ID,
				Sequence:   int64(row.Sequence),
				Height:     int64(row.Height),
				TxHash:     row.TxHash,
				Index:      int32(row.Index),
				Type:       row.Type,
				Attributes: row.Attributes,
				Timestamp:  row.Timestamp,
			}); err != nil {
				return fmt.Errorf("indexer: parquet write: %w", err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		pw.WriteStop()
		file.Close()
		return 0, err
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return 0, fmt.Errorf("indexer: parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("indexer: close parquet file: %w", err)
	}
	return written, nil
}
