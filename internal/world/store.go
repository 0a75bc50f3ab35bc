// Package world хранит блоки мира по позициям и проводит изменения через
// каскад проверки опоры.
package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/delay"
	"github.com/annel0/block-engine/internal/eventbus"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/support"
	"github.com/annel0/block-engine/internal/vec"
)

var (
	// ErrNotLoaded позиция вне загруженных чанков
	ErrNotLoaded = errors.New("чанк не загружен")
	// ErrNoBlockID блок без числового id нельзя записать в мир
	ErrNoBlockID = errors.New("блок без числового id")
)

// CausePlayer причина разрушения по прямому запросу
const CausePlayer = "player"

const publishTimeout = 100 * time.Millisecond

// Options параметры хранилища
type Options struct {
	Registry  *block.Registry
	ChunkSize int
	Delays    *delay.Manager
	// Bus необязательная шина для зеркалирования изменений и разрушений
	Bus             eventbus.EventBus
	Source          string
	SupportObserver support.Observer
	Logger          *logging.Logger
}

// Stats счётчики хранилища
type Stats struct {
	Blocks       int    `json:"blocks"`
	Entities     int    `json:"entities"`
	LoadedChunks int    `json:"loaded_chunks"`
	Changes      uint64 `json:"changes"`
	Destroys     uint64 `json:"destroys"`
	PendingDelay int    `json:"pending_delay"`
}

// Store in-memory хранилище блоков. Читать можно из любой горутины,
// изменения и каскад выполняются на потоке симуляции: события ставятся
// в FIFO-очередь и разбираются без рекурсии.
type Store struct {
	mu        sync.RWMutex
	registry  *block.Registry
	chunkSize int
	blocks    map[vec.Vec3]block.BlockID
	loaded    map[vec.Vec3]struct{}
	entities  map[vec.Vec3]support.BlockEntity
	positions map[support.EntityID]vec.Vec3

	nextEntityID support.EntityID
	changes      uint64
	destroys     uint64

	queueMu    sync.Mutex
	queue      []Event
	processing bool

	delays     *delay.Manager
	controller *support.Controller
	side       *support.SideSupport
	bus        eventbus.EventBus
	source     string
	logger     *logging.Logger
}

// NewStore создаёт хранилище и подключает к нему правила опоры
func NewStore(opts Options) *Store {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 16
	}
	if opts.Delays == nil {
		opts.Delays = delay.NewManager(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetComponentLogger("world")
	}
	if opts.Source == "" {
		opts.Source = "block-engine"
	}

	s := &Store{
		registry:     opts.Registry,
		chunkSize:    opts.ChunkSize,
		blocks:       make(map[vec.Vec3]block.BlockID),
		loaded:       make(map[vec.Vec3]struct{}),
		entities:     make(map[vec.Vec3]support.BlockEntity),
		positions:    make(map[support.EntityID]vec.Vec3),
		nextEntityID: 1000, // ниже 1000 id оставлены под служебные сущности
		delays:       opts.Delays,
		bus:          opts.Bus,
		source:       opts.Source,
		logger:       opts.Logger,
	}
	rules, side := support.NewDefaultRegistry(s, s.delays, s, opts.SupportObserver)
	s.side = side
	s.controller = support.NewController(s, rules, s, nil)
	return s
}

// Controller возвращает каскадный контроллер хранилища
func (s *Store) Controller() *support.Controller { return s.controller }

// Registry возвращает реестр блоков хранилища
func (s *Store) Registry() *block.Registry { return s.registry }

//================ Загруженная область =================//

// LoadChunk помечает чанк загруженным
func (s *Store) LoadChunk(chunk vec.Vec3) {
	s.mu.Lock()
	s.loaded[chunk] = struct{}{}
	s.mu.Unlock()
}

// UnloadChunk снимает пометку. Блоки чанка остаются в памяти.
func (s *Store) UnloadChunk(chunk vec.Vec3) {
	s.mu.Lock()
	delete(s.loaded, chunk)
	s.mu.Unlock()
}

// LoadArea загружает куб чанков радиуса radius вокруг мировой позиции
func (s *Store) LoadArea(center vec.Vec3, radius int) int {
	c := center.ToChunkCoords(s.chunkSize)
	n := 0
	s.mu.Lock()
	defer s.mu.Unlock()
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			for z := -radius; z <= radius; z++ {
				s.loaded[c.Add(vec.Vec3{X: x, Y: y, Z: z})] = struct{}{}
				n++
			}
		}
	}
	return n
}

// IsRelevant сообщает, находится ли позиция в загруженном чанке
func (s *Store) IsRelevant(pos vec.Vec3) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loaded[pos.ToChunkCoords(s.chunkSize)]
	return ok
}

//================ Чтение =================//

// BlockAt возвращает блок в позиции; незаписанная позиция и неизвестный id дают воздух
func (s *Store) BlockAt(pos vec.Vec3) *block.Block {
	s.mu.RLock()
	id, ok := s.blocks[pos]
	s.mu.RUnlock()
	if !ok {
		return s.registry.Air()
	}
	return s.registry.BlockByID(id)
}

// BlockIDAt возвращает сохранённый id позиции
func (s *Store) BlockIDAt(pos vec.Vec3) block.BlockID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks[pos]
}

func (s *Store) BlockEntityAt(pos vec.Vec3) (support.BlockEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.entities[pos]
	return ent, ok
}

func (s *Store) BlockEntityPosition(id support.EntityID) (vec.Vec3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[id]
	return pos, ok
}

// Stats возвращает счётчики хранилища
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Blocks:       len(s.blocks),
		Entities:     len(s.entities),
		LoadedChunks: len(s.loaded),
		Changes:      s.changes,
		Destroys:     s.destroys,
		PendingDelay: s.delays.Pending(),
	}
}

//================ Изменения =================//

// SetBlock записывает блок и прогоняет каскад до опустошения очереди
func (s *Store) SetBlock(pos vec.Vec3, b *block.Block) error {
	if err := s.checkWritable(pos, b); err != nil {
		return err
	}
	s.enqueue(s.commit(pos, b))
	s.drain()
	return nil
}

// PlaceBatch проверяет пакет на опору и записывает его целиком или не записывает вовсе
func (s *Store) PlaceBatch(batch support.Overrides) error {
	for pos, b := range batch {
		if err := s.checkWritable(pos, b); err != nil {
			return err
		}
	}
	if err := s.controller.ValidatePlacement(batch); err != nil {
		return err
	}
	for pos, b := range batch {
		s.enqueue(s.commit(pos, b))
	}
	s.drain()
	return nil
}

// Destroy ставит разрушение в очередь и прогоняет каскад
func (s *Store) Destroy(pos vec.Vec3, cause string) {
	s.enqueue(BlockDestroyEvent{Position: pos, Cause: cause})
	s.drain()
}

// SendDestroy принимает запросы на разрушение от правил опоры
func (s *Store) SendDestroy(ev support.DestroyEvent) {
	s.enqueue(BlockDestroyEvent{Position: ev.Position, Cause: ev.Cause, Rule: ev.Rule})
}

// Tick выдаёт созревшие отложенные проверки правилам и прогоняет каскад.
// Возвращает число выданных действий.
func (s *Store) Tick(now time.Time) int {
	due := s.delays.Due(now)
	for _, a := range due {
		switch a.ActionID {
		case support.SupportCheckAction:
			s.side.OnDelayedCheck(a.Entity, a.ActionID)
		default:
			s.logger.Warn("Неизвестное отложенное действие %q сущности %d", a.ActionID, a.Entity)
		}
	}
	s.drain()
	return len(due)
}

func (s *Store) checkWritable(pos vec.Vec3, b *block.Block) error {
	if !s.IsRelevant(pos) {
		return fmt.Errorf("%w: %s", ErrNotLoaded, pos)
	}
	if !b.HasID() {
		return fmt.Errorf("%w: %s", ErrNoBlockID, b.URI())
	}
	return nil
}

// commit записывает блок и пересоздаёт сущность позиции
func (s *Store) commit(pos vec.Vec3, b *block.Block) BlockChangeEvent {
	old := s.BlockAt(pos)

	s.mu.Lock()
	if ent, ok := s.entities[pos]; ok {
		delete(s.entities, pos)
		delete(s.positions, ent.ID)
		s.delays.CancelEntity(ent.ID)
	}
	if b.IsAir() {
		delete(s.blocks, pos)
	} else {
		s.blocks[pos] = b.ID()
	}
	if c := b.Components(); !c.IsEmpty() {
		s.nextEntityID++
		ent := support.BlockEntity{ID: s.nextEntityID, Components: c}
		s.entities[pos] = ent
		s.positions[ent.ID] = pos
	}
	s.changes++
	s.mu.Unlock()

	return BlockChangeEvent{Position: pos, Old: old, New: b}
}

func (s *Store) enqueue(ev Event) {
	s.queueMu.Lock()
	s.queue = append(s.queue, ev)
	s.queueMu.Unlock()
}

// drain разбирает очередь. Вложенный вызов (из обработчика) ничего не делает:
// очередь дочитает внешний цикл.
func (s *Store) drain() {
	s.queueMu.Lock()
	if s.processing {
		s.queueMu.Unlock()
		return
	}
	s.processing = true
	s.queueMu.Unlock()

	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			s.processing = false
			s.queueMu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		s.handleEvent(ev)
	}
}

func (s *Store) handleEvent(ev Event) {
	switch e := ev.(type) {
	case BlockChangeEvent:
		s.controller.OnBlockChanged(support.BlockChangedEvent{Position: e.Position, Old: e.Old, New: e.New})
		s.publish(eventbus.TypeBlockChanged, 1, eventbus.BlockChanged{
			Position: e.Position,
			OldURI:   e.Old.URI().String(),
			NewURI:   e.New.URI().String(),
			OldID:    uint16(e.Old.ID()),
			NewID:    uint16(e.New.ID()),
		})
	case BlockDestroyEvent:
		s.handleDestroy(e)
	}
}

func (s *Store) handleDestroy(e BlockDestroyEvent) {
	current := s.BlockAt(e.Position)
	if current.IsAir() {
		s.logger.Trace("Разрушение %s пропущено: там уже воздух", e.Position)
		return
	}
	var entity support.EntityID
	if ent, ok := s.BlockEntityAt(e.Position); ok {
		entity = ent.ID
	}

	s.logger.Debug("Разрушен %s в %s: %s", current, e.Position, e.Cause)
	change := s.commit(e.Position, s.registry.Air())
	s.mu.Lock()
	s.destroys++
	s.mu.Unlock()

	s.publish(eventbus.TypeBlockDestroyed, 5, eventbus.BlockDestroyed{
		Position: e.Position,
		URI:      current.URI().String(),
		Cause:    e.Cause,
		Rule:     e.Rule,
		Entity:   entity,
	})
	s.enqueue(change)
}

func (s *Store) publish(eventType string, priority int, payload any) {
	if s.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventType, s.source, priority, payload)
	if err != nil {
		s.logger.Error("Событие %s не сформировано: %v", eventType, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}
