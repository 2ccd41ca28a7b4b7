package storage

import (
	"context"
	"fmt"
	"os"
)

type FileDataset struct {
	FilePath string
}

func NewFileDataset(filePath string) *FileDataset {
	return &FileDataset{FilePath: filePath}
}

func (d *FileDataset) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(d.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", d.FilePath, err)
	}
	return data, nil
}
