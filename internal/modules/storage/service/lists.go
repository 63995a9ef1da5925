package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"pump_screener/internal/models"
)

const defaultPath = "binance_config.json"

// Lists - файловое хранилище списков monitor/ignore.
// Формат по расширению: .yaml/.yml - YAML, всё остальное - JSON.
type Lists struct {
	path string
	mu   sync.Mutex
}

func NewLists(path string) *Lists {
	if path == "" {
		path = defaultPath
	}
	return &Lists{path: path}
}

func (l *Lists) Path() string { return l.path }

// Load: нет файла - пустые списки без ошибки.
func (l *Lists) Load(_ context.Context) (models.SymbolLists, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.SymbolLists{}, nil
		}
		return models.SymbolLists{}, errors.Wrapf(err, "read %s", l.path)
	}

	var out models.SymbolLists
	if l.isYAML() {
		err = yaml.Unmarshal(b, &out)
	} else {
		err = sonic.Unmarshal(b, &out)
	}
	if err != nil {
		return models.SymbolLists{}, errors.Wrapf(err, "decode %s", l.path)
	}
	return out, nil
}

func (l *Lists) Save(_ context.Context, lists models.SymbolLists) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := models.SymbolLists{
		Monitor: sortedCopy(lists.Monitor),
		Ignore:  sortedCopy(lists.Ignore),
	}

	var (
		b   []byte
		err error
	)
	if l.isYAML() {
		b, err = yaml.Marshal(&snap)
	} else {
		b, err = sonic.ConfigStd.MarshalIndent(&snap, "", "    ")
	}
	if err != nil {
		return errors.Wrap(err, "encode symbol lists")
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "mkdir %s", dir)
		}
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return os.Rename(tmp, l.path) // атомарно
}

func (l *Lists) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(l.path))
	return ext == ".yaml" || ext == ".yml"
}

// sortedCopy - пустой список пишем как [], не null.
func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
