// Package fsx writes files so that readers see either the old content or the
// new content, never a partial write.
package fsx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrExists = errors.New("file exists")

// ops are the filesystem calls a write goes through. Tests swap them.
type ops struct {
	mkdirAll   func(string, os.FileMode) error
	lstat      func(string) (os.FileInfo, error)
	createTemp func(dir, pattern string) (*os.File, error)
	rename     func(oldpath, newpath string) error
	remove     func(string) error
	sync       func(*os.File) error
}

var osOps = ops{
	mkdirAll:   os.MkdirAll,
	lstat:      os.Lstat,
	createTemp: os.CreateTemp,
	rename:     os.Rename,
	remove:     os.Remove,
	sync:       (*os.File).Sync,
}

// AtomicWriteFile writes data to a hidden temporary file next to path and
// renames it over path. The temporary file gets perm before any data is
// written. With overwrite false an existing path is an ErrExists error.
func AtomicWriteFile(path string, data []byte, perm os.FileMode, overwrite bool) error {
	return osOps.writeFile(path, data, perm, overwrite)
}

func (o ops) writeFile(path string, data []byte, perm os.FileMode, overwrite bool) (err error) {
	dir := filepath.Dir(path)
	if err := o.mkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	if !overwrite {
		_, statErr := o.lstat(path)
		switch {
		case statErr == nil:
			return fmt.Errorf("%s: %w", path, ErrExists)
		case !errors.Is(statErr, os.ErrNotExist):
			return fmt.Errorf("stat %s: %w", path, statErr)
		}
	}

	tmp, err := o.createTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = o.remove(tmp.Name())
		}
	}()

	if err := o.fill(tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := o.rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// fill sets perm, writes data and flushes it to disk. f is closed on return.
func (o ops) fill(f *os.File, data []byte, perm os.FileMode) error {
	err := f.Chmod(perm)
	if err == nil {
		_, err = f.Write(data)
	}
	if err == nil {
		err = o.sync(f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// WriteJSON atomically replaces path with v as two-space indented JSON and a
// trailing newline. '<', '>' and '&' are written as is, so URLs in config
// files stay readable.
func WriteJSON(path string, v any, perm os.FileMode) error {
	data, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, data, perm, true)
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}
