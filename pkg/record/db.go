package record

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch name {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "none":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// WriteParquet drains records into a parquet file at path.
func WriteParquet(path string, records <-chan GameRecord, cfg Config) error {
	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(GameRecord), cfg.parallel())
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = codec

	for record := range records {
		if err := parquetWriter.Write(record); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

const readBatch = 1024

// ReadParquet loads every game record from path.
func ReadParquet(path string, parallel int64) ([]GameRecord, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(GameRecord), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	rows := int(parquetReader.GetNumRows())
	records := make([]GameRecord, 0, rows)
	for len(records) < rows {
		batch := make([]GameRecord, min(readBatch, rows-len(records)))
		if err := parquetReader.Read(&batch); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		records = append(records, batch...)
	}
	return records, nil
}
