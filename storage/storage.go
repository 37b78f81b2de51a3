// Package storage 保存生成的 PDF：本地目录或任意 S3 兼容的对象存储。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ContentType of every stored document.
const ContentType = "application/pdf"

// Sink stores one document and returns where it went (a path or an s3:// URI).
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ErrEmptyDocument is returned when nothing was read from the reader.
var ErrEmptyDocument = errors.New("storage: empty document")

// objectName 清理文件名；为空时生成随机名称。
func objectName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return uuid.NewString() + ".pdf"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// FileSink writes documents into a directory.
type FileSink struct {
	dir string
}

// NewFileSink creates dir when needed.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Save writes r to dir/name through a temporary file, so a failed write never leaves half a PDF.
func (s *FileSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, objectName(name))
	tmp, err := os.CreateTemp(s.dir, ".labelsheet-*.pdf")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("写入 %s 失败: %w", target, err)
	}
	if n == 0 {
		return "", ErrEmptyDocument
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("写入 %s 失败: %w", target, err)
	}
	return target, nil
}
