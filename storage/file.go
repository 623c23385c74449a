package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// File is a Store persisted as a CBOR array of records. The whole file is
// rewritten through a temporary file and a rename on every change.
type File struct {
	path string

	mu  sync.Mutex
	mem *Memory
}

func OpenFile(path string) (*File, error) {
	f := &File{path: path, mem: NewMemory()}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if len(data) == 0 {
		return f, nil
	}
	var records []Record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", path, err)
	}
	f.mem.replace(records)
	return f, nil
}

func (f *File) Store(ctx context.Context, r Record) error {
	if err := validate(r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.mem.LoadAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range records {
		if records[i].Code == r.Code {
			records[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, r)
	}
	if err := f.flush(records); err != nil {
		return err
	}
	return f.mem.Store(ctx, r)
}

func (f *File) Load(ctx context.Context, code string) (Record, error) {
	return f.mem.Load(ctx, code)
}

func (f *File) LoadAll(ctx context.Context) ([]Record, error) {
	return f.mem.LoadAll(ctx)
}

func (f *File) Delete(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records, err := f.mem.LoadAll(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.Code != code {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return ErrNotFound
	}
	if err := f.flush(kept); err != nil {
		return err
	}
	return f.mem.Delete(ctx, code)
}

func (f *File) Close() error { return nil }

// flush replaces the file with records. The in-memory view is only
// updated by callers once flush succeeds.
func (f *File) flush(records []Record) error {
	data, err := encMode.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
