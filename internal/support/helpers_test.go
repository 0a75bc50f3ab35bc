package support

import (
	"testing"
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/vec"
	"github.com/stretchr/testify/require"
)

type fakeWorld struct {
	blocks    map[vec.Vec3]*block.Block
	entities  map[vec.Vec3]BlockEntity
	positions map[EntityID]vec.Vec3
	air       *block.Block
	minY      int
	nextID    EntityID
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		blocks:    make(map[vec.Vec3]*block.Block),
		entities:  make(map[vec.Vec3]BlockEntity),
		positions: make(map[EntityID]vec.Vec3),
		air:       block.NewRegistry(block.Options{}).Air(),
		minY:      -100,
		nextID:    1,
	}
}

func (w *fakeWorld) set(pos vec.Vec3, b *block.Block) {
	if ent, ok := w.entities[pos]; ok {
		delete(w.positions, ent.ID)
		delete(w.entities, pos)
	}
	w.blocks[pos] = b
	if !b.Components().IsEmpty() {
		ent := BlockEntity{ID: w.nextID, Components: b.Components()}
		w.nextID++
		w.entities[pos] = ent
		w.positions[ent.ID] = pos
	}
}

func (w *fakeWorld) BlockAt(pos vec.Vec3) *block.Block {
	if b, ok := w.blocks[pos]; ok {
		return b
	}
	return w.air
}

func (w *fakeWorld) IsRelevant(pos vec.Vec3) bool { return pos.Y >= w.minY }

func (w *fakeWorld) BlockEntityAt(pos vec.Vec3) (BlockEntity, bool) {
	ent, ok := w.entities[pos]
	return ent, ok
}

func (w *fakeWorld) BlockEntityPosition(id EntityID) (vec.Vec3, bool) {
	pos, ok := w.positions[id]
	return pos, ok
}

type recordingSender struct{ events []DestroyEvent }

func (s *recordingSender) SendDestroy(ev DestroyEvent) { s.events = append(s.events, ev) }

type countingScheduler struct {
	scheduled int
	pending   map[EntityID]time.Duration
}

func newCountingScheduler() *countingScheduler {
	return &countingScheduler{pending: make(map[EntityID]time.Duration)}
}

func (s *countingScheduler) ScheduleOnce(entity EntityID, actionID string, delay time.Duration) {
	s.scheduled++
	s.pending[entity] = delay
}

func (s *countingScheduler) HasPending(entity EntityID, actionID string) bool {
	_, ok := s.pending[entity]
	return ok && actionID == SupportCheckAction
}

type countingObserver struct {
	lost     map[string]int
	rejected map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{lost: map[string]int{}, rejected: map[string]int{}}
}

func (o *countingObserver) SupportLost(rule string, _ Removal) { o.lost[rule]++ }
func (o *countingObserver) PlacementRejected(rule string)    { o.rejected[rule]++ }

type fixture struct {
	world     *fakeWorld
	sender    *recordingSender
	scheduler *countingScheduler
	observer  *countingObserver
	rules     *Registry
	side      *SideSupport
	ctrl      *Controller
}

func newFixture() *fixture {
	f := &fixture{
		world:     newFakeWorld(),
		sender:    &recordingSender{},
		scheduler: newCountingScheduler(),
		observer:  newCountingObserver(),
	}
	f.rules, f.side = NewDefaultRegistry(f.world, f.scheduler, f.sender, f.observer)
	f.ctrl = NewController(f.world, f.rules, f.sender, nil)
	return f
}

// change записывает блок и уведомляет контроллер
func (f *fixture) change(pos vec.Vec3, b *block.Block) int {
	old := f.world.BlockAt(pos)
	f.world.set(pos, b)
	return f.ctrl.OnBlockChanged(BlockChangedEvent{Position: pos, Old: old, New: b})
}

func build(t *testing.T, uri string, kind block.FamilyKind, props block.Properties, comps block.Components, shape *block.Shape) *block.Family {
	t.Helper()
	f, err := block.Builder{}.BuildFamily(&block.FamilyDefinition{
		URI:  block.MustParseURI(uri),
		Kind: kind,
		Base: block.SectionDefinition{Properties: props, Components: comps},
	}, shape)
	require.NoError(t, err)
	return f
}

type palette struct {
	stone, water, sand, torch, vine, lantern, sandTorch *block.Block
}

func newPalette(t *testing.T) palette {
	torchShape := block.NewShape("engine:torch", nil, []vec.Side{vec.Bottom})
	hook := block.NewShape("engine:hook", nil, []vec.Side{vec.Back})
	return palette{
		stone: build(t, "core:stone", block.KindSymmetric, block.Properties{AttachmentAllowed: true}, block.Components{}, nil).Archetype(),
		water: build(t, "core:water", block.KindSymmetric, block.Properties{Liquid: true, Penetrable: true}, block.Components{}, nil).Archetype(),
		sand:  build(t, "core:sand", block.KindSymmetric, block.Properties{AttachmentAllowed: true, SupportRequired: true}, block.Components{}, nil).Archetype(),
		torch: build(t, "core:torch", block.KindSymmetric, block.Properties{},
			block.Components{SideSupport: &block.SideSupportSpec{Bottom: true, Sides: true}}, torchShape).Archetype(),
		vine: build(t, "core:vine", block.KindSymmetric, block.Properties{},
			block.Components{SideSupport: &block.SideSupportSpec{Top: true, Sides: true, DropDelayMs: 5000}}, nil).Archetype(),
		lantern: build(t, "core:lantern", block.KindHorizontal, block.Properties{},
			block.Components{AttachSupportRequired: true}, hook).Archetype(),
		sandTorch: build(t, "core:sand_torch", block.KindSymmetric, block.Properties{SupportRequired: true},
			block.Components{SideSupport: &block.SideSupportSpec{Bottom: true}}, nil).Archetype(),
	}
}

func at(x, y, z int) vec.Vec3 { return vec.Vec3{X: x, Y: y, Z: z} }
