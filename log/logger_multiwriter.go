package log

import (
	"fmt"
	"io"
)

// Add appends a new writer to the multiwriter slice
func (mw *multiWriter) Add(writer io.Writer) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	for i := range mw.writers {
		if mw.writers[i] == writer {
			return errWriterAlreadyLoaded
		}
	}
	mw.writers = append(mw.writers, writer)
	return nil
}

// Remove removes existing writer from multiwriter slice
func (mw *multiWriter) Remove(writer io.Writer) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	for i := range mw.writers {
		if mw.writers[i] != writer {
			continue
		}
		mw.writers = append(mw.writers[:i], mw.writers[i+1:]...)
		return nil
	}
	return ErrWriterNotFound
}

// replace swaps the configured outputs while retaining any writers that
// were added at runtime, such as run log capture
func (mw *multiWriter) replace(outputs []io.Writer) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var kept []io.Writer
	for i := range mw.writers {
		if _, ok := mw.writers[i].(interface{ Fd() uintptr }); ok {
			continue
		}
		kept = append(kept, mw.writers[i])
	}
	mw.writers = append(outputs, kept...)
}

// Write writes the line to every writer in order. The first failure is
// returned after all writers have been attempted
func (mw *multiWriter) Write(p []byte) (int, error) {
	mw.mu.RLock()
	defer mw.mu.RUnlock()
	var firstErr error
	for i := range mw.writers {
		n, err := mw.writers[i].Write(p)
		if err == nil && n != len(p) {
			err = io.ErrShortWrite
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%T %w", mw.writers[i], err)
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}
	return len(p), nil
}
