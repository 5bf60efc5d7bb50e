// Package snapshot implements the matching core's point-in-time book
// snapshots (spec.md §4.7): atomic write, bounded retention, and a
// restore path that replays orders back into fresh books in arrival
// order.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/clob-core/internal/clob/book"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/engine"
	"github.com/abdoElHodaky/clob-core/internal/clob/errs"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

const filenamePrefix = "snapshot_"
const filenameSuffix = ".json"

// Store writes and retains point-in-time snapshots under a directory.
type Store struct {
	dir     string
	retainN int
	logger  *zap.Logger
	seq     uint64
}

// NewStore returns a Store rooted at dir, retaining the last retainN
// snapshots (spec.md §6 default: 5).
func NewStore(dir string, retainN int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, retainN: retainN, logger: logger}
}

// Save serializes every book owned by eng, writes it atomically
// (write-temp + rename), and deletes older snapshots beyond retainN.
func (s *Store) Save(eng *engine.Engine) (string, error) {
	doc := buildDocument(eng)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errs.Wrap(err, errs.ErrPersistence, "marshal snapshot document")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errs.Wrap(err, errs.ErrPersistence, "create snapshot directory")
	}

	seq := atomic.AddUint64(&s.seq, 1)
	name := fmt.Sprintf("%s%d-%d%s", filenamePrefix, time.Now().Unix(), seq, filenameSuffix)
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", errs.Wrap(err, errs.ErrPersistence, "write snapshot temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", errs.Wrap(err, errs.ErrPersistence, "rename snapshot temp file")
	}

	s.logger.Info("wrote snapshot", zap.String("path", path), zap.Int("symbols", len(doc.OrderBooks)))

	if err := s.cleanup(); err != nil {
		s.logger.Warn("snapshot cleanup failed", zap.Error(err))
	}
	return path, nil
}

// cleanup keeps the retainN most recent snapshot files, deleting older
// ones, after a successful new write (spec.md §4.7).
func (s *Store) cleanup() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	type candidate struct {
		name  string
		epoch int64
		seq   int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		epoch, seq, ok := parseSnapshotKey(e.Name())
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), epoch: epoch, seq: seq})
	}
	if len(candidates) <= s.retainN {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].epoch != candidates[j].epoch {
			return candidates[i].epoch > candidates[j].epoch
		}
		return candidates[i].seq > candidates[j].seq
	})
	for _, c := range candidates[s.retainN:] {
		path := filepath.Join(s.dir, c.name)
		if err := os.Remove(path); err != nil {
			return err
		}
		s.logger.Debug("deleted old snapshot", zap.String("path", path))
	}
	return nil
}

// parseSnapshotKey extracts the (epoch, seq) ordering key from a
// "snapshot_<epoch>-<seq>.json" filename. seq is the decisive tiebreaker
// since multiple saves can land in the same wall-clock second.
func parseSnapshotKey(name string) (epoch, seq int64, ok bool) {
	if !strings.HasPrefix(name, filenamePrefix) || !strings.HasSuffix(name, filenameSuffix) {
		return 0, 0, false
	}
	mid := strings.TrimSuffix(strings.TrimPrefix(name, filenamePrefix), filenameSuffix)
	parts := strings.SplitN(mid, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	epoch, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return epoch, seq, true
}

// LatestPath returns the most recent snapshot file in dir, if any.
func (s *Store) LatestPath() (string, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	var bestEpoch, best int64 = -1, -1
	var bestName string
	for _, e := range entries {
		epoch, seq, ok := parseSnapshotKey(e.Name())
		if !ok {
			continue
		}
		if epoch > bestEpoch || (epoch == bestEpoch && seq > best) {
			bestEpoch, best = epoch, seq
			bestName = e.Name()
		}
	}
	if bestName == "" {
		return "", false, nil
	}
	return filepath.Join(s.dir, bestName), true, nil
}

// Load reads and parses a snapshot document from path.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrPersistence, "read snapshot file")
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errs.Wrap(err, errs.ErrPersistence, "unmarshal snapshot document")
	}
	return &doc, nil
}

// Restore rebuilds each book in doc and installs it into eng, replaying
// orders in arrival order within each level (spec.md §4.7 "Load restores
// each book by replaying orders into it in arrival order").
func Restore(eng *engine.Engine, doc *Document) error {
	for symbol, sb := range doc.OrderBooks {
		b := book.New(symbol)
		if err := restoreSide(b, sb.Bids); err != nil {
			return err
		}
		if err := restoreSide(b, sb.Asks); err != nil {
			return err
		}
		eng.RestoreBook(symbol, b)
	}
	return nil
}

func restoreSide(b *book.Book, levels map[string][]OrderView) error {
	type entry struct {
		view OrderView
	}
	var all []entry
	for _, views := range levels {
		for _, v := range views {
			all = append(all, entry{view: v})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].view.ArrivalSeq < all[j].view.ArrivalSeq })
	for _, e := range all {
		o, err := orderFromView(e.view)
		if err != nil {
			return err
		}
		if err := b.Add(o); err != nil {
			return err
		}
	}
	return nil
}

func orderFromView(v OrderView) (*order.Order, error) {
	originalQty, err := clobdecimal.Parse(v.OriginalQuantity)
	if err != nil {
		return nil, err
	}
	filledQty, err := clobdecimal.Parse(v.FilledQuantity)
	if err != nil {
		return nil, err
	}
	remainingQty, err := clobdecimal.Parse(v.RemainingQuantity)
	if err != nil {
		return nil, err
	}
	cancelledQty, err := clobdecimal.Parse(v.CancelledQuantity)
	if err != nil {
		return nil, err
	}
	o := &order.Order{
		ID:                v.OrderID,
		Symbol:            v.Symbol,
		Side:              order.Side(v.Side),
		Type:              order.Type(v.Type),
		HasPrice:          v.HasPrice,
		OriginalQuantity:  originalQty,
		FilledQuantity:    filledQty,
		RemainingQuantity: remainingQty,
		CancelledQuantity: cancelledQty,
		Status:            order.Status(v.Status),
		ClientID:          v.ClientID,
		ArrivalSeq:        v.ArrivalSeq,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
	if v.HasPrice {
		price, err := clobdecimal.Parse(v.Price)
		if err != nil {
			return nil, err
		}
		o.Price = price
	}
	return o, nil
}

func buildDocument(eng *engine.Engine) Document {
	doc := Document{Timestamp: time.Now(), OrderBooks: make(map[string]SymbolBook)}
	for _, symbol := range eng.Symbols() {
		b, ok := eng.Book(symbol)
		if !ok {
			continue
		}
		doc.OrderBooks[symbol] = SymbolBook{
			Bids: levelsToViews(b.ExportLevels(order.SideBuy)),
			Asks: levelsToViews(b.ExportLevels(order.SideSell)),
		}
	}
	return doc
}

func levelsToViews(levels []book.LevelExport) map[string][]OrderView {
	out := make(map[string][]OrderView, len(levels))
	for _, lvl := range levels {
		views := make([]OrderView, 0, len(lvl.Orders))
		for _, o := range lvl.Orders {
			views = append(views, viewFromOrder(o))
		}
		out[lvl.Price.String()] = views
	}
	return out
}
