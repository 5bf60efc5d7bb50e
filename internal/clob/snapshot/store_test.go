package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobid"
	"github.com/abdoElHodaky/clob-core/internal/clob/engine"
	"github.com/abdoElHodaky/clob-core/internal/clob/fees"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

func newTestEngine() *engine.Engine {
	calc := fees.NewCalculator(nil, "USD", 8)
	return engine.New(engine.DefaultConfig(), nil, calc, clobid.NewGenerator(), nil, nil, nil)
}

func seedBook(t *testing.T, e *engine.Engine) {
	t.Helper()
	resp := e.Submit(engine.SubmitRequest{Symbol: "BTC-USD", Type: order.TypeLimit, Side: order.SideBuy, HasPrice: true, Price: clobdecimal.MustParse("100"), Quantity: clobdecimal.MustParse("2")})
	require.Equal(t, order.StatusOpen, resp.Status)
	resp = e.Submit(engine.SubmitRequest{Symbol: "BTC-USD", Type: order.TypeLimit, Side: order.SideBuy, HasPrice: true, Price: clobdecimal.MustParse("100"), Quantity: clobdecimal.MustParse("3")})
	require.Equal(t, order.StatusOpen, resp.Status)
	resp = e.Submit(engine.SubmitRequest{Symbol: "BTC-USD", Type: order.TypeLimit, Side: order.SideSell, HasPrice: true, Price: clobdecimal.MustParse("105"), Quantity: clobdecimal.MustParse("1")})
	require.Equal(t, order.StatusOpen, resp.Status)
}

func TestSaveLoadRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e1 := newTestEngine()
	seedBook(t, e1)

	store := NewStore(dir, 5, nil)
	path, err := store.Save(e1)
	require.NoError(t, err)

	doc, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, doc.OrderBooks, "BTC-USD")

	e2 := newTestEngine()
	require.NoError(t, Restore(e2, doc))

	b, ok := e2.Book("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, 3, b.OrderCount())

	bestBid, ok := b.BestPrice(order.SideBuy)
	require.True(t, ok)
	assert.True(t, bestBid.Equal(clobdecimal.MustParse("100")))

	bestAsk, ok := b.BestPrice(order.SideSell)
	require.True(t, ok)
	assert.True(t, bestAsk.Equal(clobdecimal.MustParse("105")))

	head, ok := b.BestOrder(order.SideBuy)
	require.True(t, ok)
	assert.True(t, head.RemainingQuantity.Equal(clobdecimal.MustParse("2")), "first-arrived order at the level must stay FIFO head after restore")
}

func TestSaveIsAtomicNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine()
	seedBook(t, e)

	store := NewStore(dir, 5, nil)
	path, err := store.Save(e)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, ent := range entries {
		assert.False(t, filepath.Ext(ent.Name()) == ".tmp", "leftover temp file %s", ent.Name())
	}
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRetentionKeepsOnlyLastN(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine()
	seedBook(t, e)

	store := NewStore(dir, 2, nil)
	for i := 0; i < 5; i++ {
		_, err := store.Save(e)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), 2)
}

func TestLatestPathEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 5, nil)
	_, ok, err := store.LatestPath()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
