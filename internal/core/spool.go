package core

import (
	"fmt"
	"io"
	"os"
)

// Spool stages a converted file on disk so that nothing reaches the client
// until the last row is written. A failed or timed-out conversion is simply
// closed, which removes the file.
type Spool struct {
	f *os.File
}

// NewSpool creates a spool file in dir, or the OS temp dir when dir is "".
func NewSpool(dir string) (*Spool, error) {
	f, err := os.CreateTemp(dir, "b2b-convert-*.csv")
	if err != nil {
		return nil, fmt.Errorf("create spool: %w", err)
	}
	return &Spool{f: f}, nil
}

// Write implements io.Writer.
func (s *Spool) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

// Size returns the number of bytes written so far.
func (s *Spool) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// WriteTo copies the staged file to w from the beginning.
func (s *Spool) WriteTo(w io.Writer) (int64, error) {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind spool: %w", err)
	}
	return io.Copy(w, s.f)
}

// Close removes the spool file.
func (s *Spool) Close() error {
	name := s.f.Name()
	closeErr := s.f.Close()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}
