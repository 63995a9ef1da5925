package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

// ListPersister сохраняет списки monitor/ignore между перезапусками.
type ListPersister interface {
	Load(ctx context.Context) (models.SymbolLists, error)
	Save(ctx context.Context, lists models.SymbolLists) error
}

type symbolSet map[string]struct{}

func (s symbolSet) has(sym string) bool {
	_, ok := s[sym]
	return ok
}

func (s symbolSet) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ListsView - неизменяемый снимок списков на один батч.
type ListsView struct {
	monitor symbolSet
	ignore  symbolSet
}

func (v ListsView) Ignored(sym string) bool { return v.ignore.has(sym) }

// Allowed: пустой monitor пропускает всех.
func (v ListsView) Allowed(sym string) bool {
	return len(v.monitor) == 0 || v.monitor.has(sym)
}

// ListStore - allow/deny списки символов. Мапы copy-on-write: снимок
// берётся под RLock и дальше читается без блокировок.
type ListStore struct {
	p ListPersister

	// saveMu держится от снимка до Save, чтобы файл писался в порядке мутаций
	saveMu sync.Mutex

	mu      sync.RWMutex
	monitor symbolSet
	ignore  symbolSet
}

func NewListStore(ctx context.Context, p ListPersister) *ListStore {
	s := &ListStore{
		p:       p,
		monitor: symbolSet{},
		ignore:  symbolSet{},
	}
	if p == nil {
		return s
	}

	lists, err := p.Load(ctx)
	if err != nil {
		logger.Warn("[LISTS] load error, starting empty: %v", err)
		return s
	}
	for _, sym := range lists.Monitor {
		if sym = normSymbol(sym); sym != "" {
			s.monitor[sym] = struct{}{}
		}
	}
	for _, sym := range lists.Ignore {
		if sym = normSymbol(sym); sym != "" && !s.monitor.has(sym) {
			s.ignore[sym] = struct{}{}
		}
	}
	return s
}

func normSymbol(sym string) string {
	return strings.ToUpper(strings.TrimSpace(sym))
}

func (s *ListStore) View() ListsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ListsView{monitor: s.monitor, ignore: s.ignore}
}

func (s *ListStore) Lists() models.SymbolLists {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SymbolLists{
		Monitor: s.monitor.sorted(),
		Ignore:  s.ignore.sorted(),
	}
}

func (s *ListStore) Counts() (monitor, ignore int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.monitor), len(s.ignore)
}

func (s *ListStore) AddToMonitor(ctx context.Context, sym string) error {
	return s.mutate(ctx, sym, func(sym string, mon, ign symbolSet) {
		mon[sym] = struct{}{}
		delete(ign, sym)
	})
}

func (s *ListStore) RemoveFromMonitor(ctx context.Context, sym string) error {
	return s.mutate(ctx, sym, func(sym string, mon, _ symbolSet) {
		delete(mon, sym)
	})
}

func (s *ListStore) AddToIgnore(ctx context.Context, sym string) error {
	return s.mutate(ctx, sym, func(sym string, mon, ign symbolSet) {
		ign[sym] = struct{}{}
		delete(mon, sym)
	})
}

func (s *ListStore) RemoveFromIgnore(ctx context.Context, sym string) error {
	return s.mutate(ctx, sym, func(sym string, _, ign symbolSet) {
		delete(ign, sym)
	})
}

// mutate меняет копии мап и сохраняет результат. Ошибка сохранения
// возвращается вызывающему, но изменение в памяти остаётся.
func (s *ListStore) mutate(ctx context.Context, sym string, fn func(sym string, mon, ign symbolSet)) error {
	sym = normSymbol(sym)
	if sym == "" {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	mon := cloneSet(s.monitor)
	ign := cloneSet(s.ignore)
	fn(sym, mon, ign)
	s.monitor, s.ignore = mon, ign
	snap := models.SymbolLists{Monitor: mon.sorted(), Ignore: ign.sorted()}
	s.mu.Unlock()

	if s.p == nil {
		return nil
	}
	if err := s.p.Save(ctx, snap); err != nil {
		logger.Error("[LISTS] save error: %v", err)
		return errors.Wrap(err, "save symbol lists")
	}
	return nil
}

func cloneSet(in symbolSet) symbolSet {
	out := make(symbolSet, len(in)+1)
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
