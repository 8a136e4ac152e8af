package io

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/kamrann/build2-vs/internal/base"
)

var LogFiles = base.NewLogCategory("Files")

func Mkdir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// CreateBuffered truncates dst and writes it through a buffered writer.
func CreateBuffered(dst string, write func(io.Writer) error) (err error) {
	var output *os.File
	if output, err = os.Create(dst); err != nil {
		return err
	}
	base.LogDebug(LogFiles, "create '%v'", dst)

	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	buffered := bufio.NewWriterSize(output, 64*1024)
	if err = write(buffered); err == nil {
		err = buffered.Flush()
	}
	return
}

// SafeCreate writes to a temporary sibling then renames it over dst, readers never see a partial file.
func SafeCreate(dst string, write func(io.Writer) error) error {
	if err := Mkdir(filepath.Dir(dst)); err != nil {
		return err
	}

	tmpFilename := dst + ".tmp"
	defer os.Remove(tmpFilename)

	err := CreateBuffered(tmpFilename, write)
	if err == nil {
		if err = os.Rename(tmpFilename, dst); err != nil {
			base.LogWarning(LogFiles, "SafeCreate: %v", err)
		}
	}
	return err
}

func OpenFile(src string, read func(*os.File) error) (err error) {
	var input *os.File
	if input, err = os.Open(src); err != nil {
		return err
	}
	base.LogDebug(LogFiles, "open '%v'", src)

	defer func() {
		if closeErr := input.Close(); err == nil {
			err = closeErr
		}
	}()
	return read(input)
}

func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs), nil
}
