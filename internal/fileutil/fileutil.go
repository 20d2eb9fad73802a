package fileutil

import (
	"fmt"
	"io"
	"os"
)

// CopyFileVerified streams src to dst and verifies the byte count written
// matches the source size. Removes dst on mismatch. The source is opened
// read-only.
func CopyFileVerified(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	written, err := io.Copy(out, in)
	if err != nil {
		_ = os.Remove(dst)
		return written, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return written, err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	return written, nil
}
