package service

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"pump_screener/internal/models"
)

// CSV - аудит-лог в файл на каждый календарный день.
// Файл открывается на каждую запись: лог
// читают снаружи во время работы.
type CSV struct {
	dir    string
	prefix string
	now    func() time.Time

	mu sync.Mutex
}

func NewCSV(dir, prefix string) *CSV {
	if dir == "" {
		dir = "."
	}
	return &CSV{dir: dir, prefix: prefix, now: time.Now}
}

// PathFor - файл лога для даты.
func (c *CSV) PathFor(t time.Time) string {
	return filepath.Join(c.dir, c.prefix+t.Format("2006-01-02")+".csv")
}

func (c *CSV) Append(_ context.Context, rec models.AuditRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.PathFor(c.now())
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", c.dir)
	}

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(models.AuditHeader); err != nil {
			return errors.Wrap(err, "write csv header")
		}
	}
	if err := w.Write(rec.Columns()); err != nil {
		return errors.Wrap(err, "write csv row")
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}

// EnsureHeader создаёт файл текущего дня с заголовком, если его нет.
func (c *CSV) EnsureHeader() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.PathFor(c.now())
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", c.dir)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.AuditHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}
