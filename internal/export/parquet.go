package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"scraper-llm/internal/models"
)

// ItemRow is the columnar layout of an extracted item
type ItemRow struct {
	Title        string `parquet:"title"`
	Price        string `parquet:"price"`
	Img          string `parquet:"img"`
	ImgLocal     string `parquet:"img_local"`
	Description  string `parquet:"description"`
	URL          string `parquet:"url"`
	Category     string `parquet:"category"`
	Rating       string `parquet:"rating"`
	Availability string `parquet:"availability"`
}

// WriteItemsParquet writes items as a parquet file to w
func WriteItemsParquet(w io.Writer, items []models.Item) error {
	rows := make([]ItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, ItemRow(it))
	}
	pw := parquet.NewGenericWriter[ItemRow](w)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// SaveItemsParquet writes items to a parquet file at path
func SaveItemsParquet(path string, items []models.Item) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".items-*.parquet")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if err := WriteItemsParquet(f, items); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadItemsParquet loads items previously written by SaveItemsParquet
func ReadItemsParquet(path string) ([]models.Item, error) {
	rows, err := parquet.ReadFile[ItemRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	items := make([]models.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, models.Item(r))
	}
	return items, nil
}
