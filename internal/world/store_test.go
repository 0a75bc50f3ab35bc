package world

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/block-engine/internal/assets"
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/delay"
	"github.com/annel0/block-engine/internal/eventbus"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/support"
	"github.com/annel0/block-engine/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func def(uri string, props block.Properties, comps block.Components) *block.FamilyDefinition {
	return &block.FamilyDefinition{
		URI:  block.MustParseURI(uri),
		Kind: block.KindSymmetric,
		Base: block.SectionDefinition{Properties: props, Components: comps},
	}
}

func testRegistry(t *testing.T) *block.Registry {
	t.Helper()
	src := assets.NewMemorySource()
	src.AddShape(block.NewShape("engine:torch", nil, []vec.Side{vec.Bottom}))
	src.AddFamily(def("core:stone", block.Properties{AttachmentAllowed: true}, block.Components{}))
	src.AddFamily(def("core:sand", block.Properties{AttachmentAllowed: true, SupportRequired: true}, block.Components{}))
	torch := def("core:torch", block.Properties{}, block.Components{SideSupport: &block.SideSupportSpec{Bottom: true, Sides: true}})
	torch.Shape = "engine:torch"
	src.AddFamily(torch)
	src.AddFamily(def("core:vine", block.Properties{}, block.Components{SideSupport: &block.SideSupportSpec{Top: true, Sides: true, DropDelayMs: 5000}}))

	logger := logging.NewWriterLogger("test", &bytes.Buffer{}, logging.TRACE)
	r := block.NewRegistry(block.Options{
		Authoritative: true,
		Loader:        block.NewFamilyLoader(src, logger),
		Logger:        logger,
	})
	r.Initialise(context.Background(), nil, nil)
	return r
}

type env struct {
	store *Store
	reg   *block.Registry
	clock *fakeClock
	bus   *eventbus.MemoryBus
	mu    sync.Mutex
	seen  []eventbus.BlockDestroyed
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		reg:   testRegistry(t),
		clock: &fakeClock{now: time.Unix(100, 0)},
		bus:   eventbus.NewMemoryBus(256),
	}
	_, err := e.bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.TypeBlockDestroyed}},
		func(_ context.Context, ev *eventbus.Envelope) {
			p, err := eventbus.Decode[eventbus.BlockDestroyed](ev)
			if err == nil {
				e.mu.Lock()
				e.seen = append(e.seen, p)
				e.mu.Unlock()
			}
		})
	require.NoError(t, err)

	e.store = NewStore(Options{
		Registry:  e.reg,
		ChunkSize: 16,
		Delays:    delay.NewManager(e.clock.Now),
		Bus:       e.bus,
		Logger:    logging.NewWriterLogger("world", &bytes.Buffer{}, logging.TRACE),
	})
	e.store.LoadArea(vec.Vec3{}, 1)
	return e
}

func (e *env) get(t *testing.T, name string) *block.Block {
	t.Helper()
	b, err := e.reg.BlockByName(name)
	require.NoError(t, err)
	return b
}

func (e *env) set(t *testing.T, pos vec.Vec3, name string) {
	t.Helper()
	require.NoError(t, e.store.SetBlock(pos, e.get(t, name)))
}

func (e *env) destroyed(t *testing.T) []eventbus.BlockDestroyed {
	require.NoError(t, e.bus.Close())
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]eventbus.BlockDestroyed(nil), e.seen...)
}

func at(x, y, z int) vec.Vec3 { return vec.Vec3{X: x, Y: y, Z: z} }

func TestStore_CascadeThroughColumn(t *testing.T) {
	e := newEnv(t)
	e.set(t, at(0, 0, 0), "core:stone")
	e.set(t, at(0, 1, 0), "core:sand")
	e.set(t, at(0, 2, 0), "core:sand")
	e.set(t, at(0, 3, 0), "core:torch")

	e.store.Destroy(at(0, 0, 0), CausePlayer)

	for y := 0; y <= 3; y++ {
		assert.True(t, e.store.BlockAt(at(0, y, 0)).IsAir(), "y=%d", y)
	}
	stats := e.store.Stats()
	assert.Equal(t, uint64(4), stats.Destroys)
	assert.Zero(t, stats.Blocks)
	assert.Zero(t, stats.Entities)

	events := e.destroyed(t)
	require.Len(t, events, 4)
	assert.Equal(t, CausePlayer, events[0].Cause)
	assert.Equal(t, "core:torch", events[3].URI)
	assert.Equal(t, support.CauseSupportRemoved, events[3].Cause)
	assert.Equal(t, "side", events[3].Rule)
}

func TestStore_DelayedDestroyOnTick(t *testing.T) {
	e := newEnv(t)
	e.set(t, at(0, 5, 0), "core:stone")
	e.set(t, at(0, 4, 0), "core:vine")

	e.store.Destroy(at(0, 5, 0), CausePlayer)
	assert.False(t, e.store.BlockAt(at(0, 4, 0)).IsAir(), "лиана падает не сразу")
	assert.Equal(t, 1, e.store.Stats().PendingDelay)

	assert.Zero(t, e.store.Tick(e.clock.Advance(time.Second)))
	assert.Equal(t, 1, e.store.Tick(e.clock.Advance(4*time.Second)))
	assert.True(t, e.store.BlockAt(at(0, 4, 0)).IsAir())

	events := e.destroyed(t)
	require.Len(t, events, 2)
	assert.Equal(t, "core:vine", events[1].URI)
	assert.Equal(t, support.CauseSupportRemoved, events[1].Cause)
}

func TestStore_DelayedCheckSupportRestored(t *testing.T) {
	e := newEnv(t)
	e.set(t, at(0, 5, 0), "core:stone")
	e.set(t, at(0, 4, 0), "core:vine")

	e.store.Destroy(at(0, 5, 0), CausePlayer)
	e.set(t, at(1, 4, 0), "core:stone")

	assert.Equal(t, 1, e.store.Tick(e.clock.Advance(10*time.Second)))
	assert.Equal(t, "core:vine", e.store.BlockAt(at(0, 4, 0)).URI().String())
}

func TestStore_DestroyedEntityCancelsDelay(t *testing.T) {
	e := newEnv(t)
	e.set(t, at(0, 5, 0), "core:stone")
	e.set(t, at(0, 4, 0), "core:vine")
	e.store.Destroy(at(0, 5, 0), CausePlayer)

	e.store.Destroy(at(0, 4, 0), CausePlayer)
	assert.Zero(t, e.store.Stats().PendingDelay)
	assert.Zero(t, e.store.Tick(e.clock.Advance(time.Minute)))
}

func TestStore_DestroyAirSkipped(t *testing.T) {
	e := newEnv(t)
	e.store.Destroy(at(3, 3, 3), CausePlayer)
	assert.Zero(t, e.store.Stats().Destroys)
	assert.Empty(t, e.destroyed(t))
}

func TestStore_UnloadedBoundary(t *testing.T) {
	e := newEnv(t)
	e.store.LoadChunk(at(5, 0, 0))
	pos := at(5*16, 0, 0) // нижний край загруженного чанка, под ним ничего не загружено

	assert.ErrorIs(t, e.store.SetBlock(at(500, 0, 0), e.get(t, "core:stone")), ErrNotLoaded)
	require.NoError(t, e.store.PlaceBatch(support.Overrides{pos: e.get(t, "core:sand")}))
	assert.Equal(t, "core:sand", e.store.BlockAt(pos).URI().String(), "вне загруженной области опора считается достаточной")
}

func TestStore_PlaceBatch(t *testing.T) {
	e := newEnv(t)
	sand, stone := e.get(t, "core:sand"), e.get(t, "core:stone")

	err := e.store.PlaceBatch(support.Overrides{at(2, 1, 2): sand})
	assert.ErrorIs(t, err, support.ErrUnsupportedPlacement)
	assert.True(t, e.store.BlockAt(at(2, 1, 2)).IsAir(), "отклонённый пакет не записывается")

	require.NoError(t, e.store.PlaceBatch(support.Overrides{at(2, 1, 2): sand, at(2, 0, 2): stone}))
	assert.Equal(t, sand, e.store.BlockAt(at(2, 1, 2)))
	assert.Equal(t, stone.ID(), e.store.BlockIDAt(at(2, 0, 2)))
}

func TestStore_RejectsBlockWithoutID(t *testing.T) {
	e := newEnv(t)
	r := block.NewRegistry(block.Options{Authoritative: false})
	f, err := block.Builder{}.BuildFamily(def("core:ghost", block.Properties{}, block.Components{}), nil)
	require.NoError(t, err)
	r.RegisterFamily(f)

	ghost, err := r.BlockByName("core:ghost")
	require.NoError(t, err)
	assert.ErrorIs(t, e.store.SetBlock(at(0, 0, 0), ghost), ErrNoBlockID)
}

func TestStore_EntityIDs(t *testing.T) {
	e := newEnv(t)
	e.set(t, at(0, 1, 0), "core:stone")
	e.set(t, at(0, 0, 0), "core:vine")

	ent, ok := e.store.BlockEntityAt(at(0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, support.EntityID(1001), ent.ID)

	pos, ok := e.store.BlockEntityPosition(ent.ID)
	require.True(t, ok)
	assert.Equal(t, at(0, 0, 0), pos)

	_, ok = e.store.BlockEntityAt(at(0, 1, 0))
	assert.False(t, ok, "у камня нет компонентов")
}
