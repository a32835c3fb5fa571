package pkg

import (
	"io"
	"os"

	"go.uber.org/multierr"
)

// CombinedWriter copies every write to all of its writers, e.g. stdout and a rotated log file.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{writers: writers}
}

// Write reports len(p) as written if at least one writer took the whole of p.
// The errors of the failed writers are combined either way.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		err       error
		succeeded bool
	)
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr == nil && written < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		succeeded = true
	}

	if !succeeded && len(cw.writers) > 0 {
		return 0, err
	}
	return len(p), err
}

// Close closes the writers that are io.Closers, skipping stdout and stderr.
func (cw *CombinedWriter) Close() error {
	var err error
	for _, w := range cw.writers {
		if w == io.Writer(os.Stdout) || w == io.Writer(os.Stderr) {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
