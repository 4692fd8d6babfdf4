package seed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/salesquery/salesquery/internal/storage"
)

type Export struct {
	Table       string
	Data        []byte
	RecordCount int64
}

// ExportParquet encodes every table of the dataset as a parquet file, in
// Tables order.
func ExportParquet(data Dataset) ([]Export, error) {
	exports := make([]Export, 0, len(Tables))

	encoded, err := encodeParquet(data.Customers)
	if err != nil {
		return nil, fmt.Errorf("encode customers: %w", err)
	}
	exports = append(exports, Export{Table: "customers", Data: encoded, RecordCount: int64(len(data.Customers))})

	encoded, err = encodeParquet(data.Products)
	if err != nil {
		return nil, fmt.Errorf("encode products: %w", err)
	}
	exports = append(exports, Export{Table: "products", Data: encoded, RecordCount: int64(len(data.Products))})

	encoded, err = encodeParquet(data.Orders)
	if err != nil {
		return nil, fmt.Errorf("encode orders: %w", err)
	}
	exports = append(exports, Export{Table: "orders", Data: encoded, RecordCount: int64(len(data.Orders))})

	encoded, err = encodeParquet(data.OrderItems)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}
	exports = append(exports, Export{Table: "order_items", Data: encoded, RecordCount: int64(len(data.OrderItems))})

	return exports, nil
}

func encodeParquet[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Publish uploads exports to the object store and returns the written keys.
func Publish(ctx context.Context, store storage.Uploader, exports []Export) ([]storage.ObjectInfo, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	infos := make([]storage.ObjectInfo, 0, len(exports))
	for _, export := range exports {
		key, err := storage.BuildExportPath(export.Table)
		if err != nil {
			return infos, err
		}
		info, err := store.Put(ctx, key, bytes.NewReader(export.Data), int64(len(export.Data)), storage.PutOptions{ContentType: "application/vnd.apache.parquet"})
		if err != nil {
			return infos, fmt.Errorf("upload %s export: %w", export.Table, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
