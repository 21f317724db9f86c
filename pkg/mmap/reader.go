// Package mmap maps whole files into memory for read-only access.
package mmap

import (
	"fmt"
	"os"
	"sync"
)

// Reader is a read-only view of a file. The slice returned by Bytes is valid
// until Close.
type Reader struct {
	file   *os.File
	data   []byte
	mapped bool

	mu sync.Mutex
}

// Open maps filename into memory. Empty files yield an empty view.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()
	if size == 0 {
		return &Reader{file: file}, nil
	}
	if int64(int(size)) != size {
		file.Close()
		return nil, fmt.Errorf("file of %d bytes is too large to map", size)
	}

	data, mapped, err := mapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	return &Reader{file: file, data: data, mapped: mapped}, nil
}

// Bytes returns the file contents.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Len returns the file size.
func (r *Reader) Len() int {
	return len(r.data)
}

// Close unmaps the file and closes it
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.data != nil && r.mapped {
		err = unmapFile(r.data)
	}
	r.data = nil

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	return err
}
