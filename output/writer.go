// Package output provides the destinations an export can be written to.
package output

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/m-lab/go/uploader"
)

// Writer saves an exported file.
type Writer interface {
	Write(ctx context.Context, path string, content []byte) error
}

// GCSWriter provides Write operations to a GCS bucket.
type GCSWriter struct {
	up *uploader.Uploader
}

// NewGCSWriter creates a new GCSWriter from the given uploader.Uploader.
func NewGCSWriter(up *uploader.Uploader) *GCSWriter {
	return &GCSWriter{up: up}
}

// Write creates a new object at path containing content.
func (u *GCSWriter) Write(ctx context.Context, path string, content []byte) error {
	_, err := u.up.Upload(ctx, path, content)
	return err
}

// LocalWriter provides Write operations to a local directory. Writes are
// held while the filesystem is below 10% free blocks or inodes.
type LocalWriter struct {
	dir  string
	c    *sync.Cond
	safe bool
}

// NewLocalWriter creates a new LocalWriter for the given output directory.
// The free space monitor stops when ctx is done.
func NewLocalWriter(ctx context.Context, dir string) *LocalWriter {
	lw := &LocalWriter{dir: dir, c: sync.NewCond(&sync.Mutex{}), safe: true}
	go lw.monitorDir(ctx)
	return lw
}

func (lw *LocalWriter) monitorDir(ctx context.Context) {
	for ctx.Err() == nil {
		time.Sleep(time.Second)

		stat := syscall.Statfs_t{}
		err := syscall.Statfs(lw.dir, &stat)
		if err != nil {
			log.Printf("Reading statfs for %s failed: %v", lw.dir, err)
			lw.setSafe(true)
			return
		}
		lw.setSafe(!lowOnSpace(uint64(stat.Ffree), uint64(stat.Files)) &&
			!lowOnSpace(uint64(stat.Bfree), uint64(stat.Blocks)))
	}
}

// lowOnSpace reports whether less than 10% of total is free. Filesystems
// that do not report a total (e.g. btrfs inodes, procfs) are never low.
func lowOnSpace(free, total uint64) bool {
	if total == 0 {
		return false
	}
	return float64(free)/float64(total) < 0.1
}

func (lw *LocalWriter) setSafe(safe bool) {
	lw.c.L.Lock()
	lw.safe = safe
	if safe {
		lw.c.Broadcast()
	}
	lw.c.L.Unlock()
}

func (lw *LocalWriter) waitUntilSafeToWrite() {
	lw.c.L.Lock()
	for !lw.safe {
		lw.c.Wait()
	}
	lw.c.L.Unlock()
}

// Write creates or replaces the file at path with content. The content is
// written to a temporary file first so a failed write never leaves a
// truncated spreadsheet behind.
func (lw *LocalWriter) Write(ctx context.Context, path string, content []byte) error {
	p := filepath.Join(lw.dir, path)
	d := filepath.Dir(p) // path may include additional directory elements.
	err := os.MkdirAll(d, os.ModePerm)
	if err != nil {
		return err
	}
	lw.waitUntilSafeToWrite()
	tmp, err := ioutil.TempFile(d, "."+filepath.Base(p)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0664); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// MultiWriter writes the same content to every wrapped Writer, in order. The
// first failure stops the sequence.
type MultiWriter []Writer

// Write calls Write on each writer.
func (m MultiWriter) Write(ctx context.Context, path string, content []byte) error {
	for i, w := range m {
		if err := w.Write(ctx, path, content); err != nil {
			return fmt.Errorf("writer %d: %w", i, err)
		}
	}
	return nil
}
