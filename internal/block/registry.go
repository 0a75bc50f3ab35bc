package block

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/annel0/block-engine/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Registry владеет указателем на текущий снимок. Чтение идёт без блокировок
// по атомарному указателю, мутации (регистрация, выдача id) сериализуются
// одной блокировкой и публикуют новый снимок целиком.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	// Поля ниже защищены mu
	nextID        uint32
	knownIDs      map[string]BlockID
	knownOwners   map[BlockID]string
	fromPersisted bool

	authoritative bool
	loader        *FamilyLoader
	logger        *logging.Logger
	observer      Observer
}

// Options параметры реестра
type Options struct {
	// Authoritative сторона выдаёт новые id; неавторитетная использует UnknownID
	Authoritative bool
	Loader        *FamilyLoader
	Logger        *logging.Logger
	Observer      Observer
}

// InitStats итог Initialise
type InitStats struct {
	Registered int
	Skipped    []string
}

// NewRegistry создаёт реестр, содержащий только воздух
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		nextID:        uint32(MinID),
		authoritative: opts.Authoritative,
		loader:        opts.Loader,
		logger:        opts.Logger,
		observer:      opts.Observer,
	}
	if r.logger == nil {
		r.logger = logging.GetRegistryLogger()
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	r.current.Store(newSnapshot(newAirFamily()))
	return r
}

// IsAuthoritative сообщает, выдаёт ли реестр новые id
func (r *Registry) IsAuthoritative() bool { return r.authoritative }

// Snapshot возвращает текущий снимок. Снимок согласован всё время, пока на него есть ссылка.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Air возвращает дескриптор воздуха
func (r *Registry) Air() *Block {
	return r.current.Load().Air()
}

// RegisterFamily регистрирует семейство и публикует новый снимок.
// Повторная регистрация того же URI не отслеживается: это ошибка вызывающего,
// проверяйте Family или используйте EnsureFamily.
func (r *Registry) RegisterFamily(family *Family) {
	r.mu.Lock()
	snap := r.registerLocked(family)
	r.mu.Unlock()
	r.observer.FamilyRegistered(family, snap)
}

func (r *Registry) registerLocked(family *Family) *Snapshot {
	prev := r.current.Load()
	taken := make(map[BlockID]bool, len(family.blocks))
	for _, b := range family.blocks {
		r.assignIDLocked(b, prev, taken)
	}
	next := prev.withFamily(family)
	r.current.Store(next)
	r.logger.Debug("Зарегистрировано семейство %s (%d блоков)", family.uri, len(family.blocks))
	return next
}

func (r *Registry) assignIDLocked(b *Block, snap *Snapshot, taken map[BlockID]bool) {
	if b.idAssigned {
		if b.HasID() {
			taken[b.id] = true
		}
		return
	}

	key := b.uri.String()
	if id, ok := r.knownIDs[key]; ok {
		owner, used := snap.blocksByID[id]
		if (!used || owner.uri == b.uri) && !taken[id] {
			b.assignID(id)
			taken[id] = true
			return
		}
		r.logger.Error("Сохранённый id %d блока %s уже занят, блок получит новый id", id, key)
	}

	if !r.authoritative {
		r.logger.Error("Для блока %s нет сохранённого id, используется сентинел %d", key, UnknownID)
		r.observer.PersistedMappingMissing(b.uri)
		b.assignID(UnknownID)
		return
	}

	id := r.allocateLocked(b.uri, snap, taken)
	if id.IsAssigned() {
		if r.fromPersisted {
			r.logger.Error("Для блока %s нет сохранённого id, выдан новый id %d", key, id)
			r.observer.PersistedMappingMissing(b.uri)
		} else {
			r.logger.Trace("Блоку %s выдан id %d", key, id)
		}
		taken[id] = true
	}
	b.assignID(id)
}

// allocateLocked выдаёт следующий свободный id или UnknownID при исчерпании
func (r *Registry) allocateLocked(uri BlockURI, snap *Snapshot, taken map[BlockID]bool) BlockID {
	for r.nextID <= uint32(MaxID) {
		id := BlockID(r.nextID)
		r.nextID++
		if _, used := snap.blocksByID[id]; used || taken[id] || r.reservedLocked(id, uri) {
			continue
		}
		return id
	}
	r.logger.Error("Пространство id блоков исчерпано, блок %s получает сентинел %d", uri, UnknownID)
	r.observer.IDSpaceExhausted(uri)
	return UnknownID
}

// reservedLocked сообщает, закреплён ли id в сохранённой таблице за другим блоком
func (r *Registry) reservedLocked(id BlockID, uri BlockURI) bool {
	if !r.fromPersisted {
		return false
	}
	owner, ok := r.knownOwners[id]
	return ok && owner != uri.String()
}

// BlockByURI возвращает блок по URI. URI с формой куба нормализуется к бесформенному,
// URI семейства без идентификатора даёт архетип. Незарегистрированный URI: ErrNotFound.
func (r *Registry) BlockByURI(uri BlockURI) (*Block, error) {
	snap := r.current.Load()
	uri = uri.Shapeless()
	if b, ok := snap.Block(uri); ok {
		return b, nil
	}
	if uri.Identifier == "" {
		if f, ok := snap.Family(uri); ok {
			return f.Archetype(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
}

// BlockByName разбирает строку и ищет блок
func (r *Registry) BlockByName(name string) (*Block, error) {
	uri, err := ParseURI(name)
	if err != nil {
		return nil, err
	}
	return r.BlockByURI(uri)
}

// BlockByID возвращает блок по id, для незарегистрированного id: воздух
func (r *Registry) BlockByID(id BlockID) *Block {
	return r.current.Load().BlockByID(id)
}

// Family возвращает зарегистрированное семейство
func (r *Registry) Family(uri BlockURI) (*Family, bool) {
	return r.current.Load().Family(uri.FamilyURI().Shapeless())
}

// EnsureFamily возвращает семейство, при необходимости загружая и регистрируя его.
// Проверка и регистрация выполняются под одной блокировкой.
func (r *Registry) EnsureFamily(uri BlockURI) (*Family, error) {
	uri = uri.FamilyURI().Shapeless()
	if f, ok := r.Family(uri); ok {
		return f, nil
	}
	if r.loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}

	family, ok := r.loader.Load(uri)
	if !ok {
		r.observer.FamilyUnavailable(uri)
		return nil, fmt.Errorf("%w: %s", ErrUnloadable, uri)
	}

	r.mu.Lock()
	if existing, ok := r.current.Load().Family(uri); ok {
		r.mu.Unlock()
		return existing, nil
	}
	snap := r.registerLocked(family)
	r.mu.Unlock()

	r.observer.FamilyRegistered(family, snap)
	return family, nil
}

// Initialise пересобирает реестр по сохранённому списку семейств и таблице id.
// Авторитетная сторона дополнительно регистрирует все доступные определения,
// для freeform: по одному семейству на каждую объявленную форму.
func (r *Registry) Initialise(ctx context.Context, knownFamilies []string, knownIDs map[string]BlockID) InitStats {
	_, span := otel.Tracer("block-engine/registry").Start(ctx, "Registry.Initialise")
	defer span.End()

	r.mu.Lock()
	r.knownIDs = make(map[string]BlockID, len(knownIDs))
	r.knownOwners = make(map[BlockID]string, len(knownIDs))
	r.nextID = uint32(MinID)
	keys := make([]string, 0, len(knownIDs))
	for key := range knownIDs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		id := knownIDs[key]
		uri, err := ParseURI(key)
		if err != nil || !id.IsAssigned() || id == AirID {
			r.logger.Warn("Пропущена некорректная запись таблицы id: %q=%d", key, id)
			continue
		}
		// блоки регистрируются под бесформенным URI, форма куба в таблице отбрасывается
		norm := uri.Shapeless().String()
		if prev, dup := r.knownIDs[norm]; dup {
			if prev != id {
				r.logger.Warn("Запись %q=%d дублирует %s=%d и пропущена", key, id, norm, prev)
			}
			continue
		}
		r.knownIDs[norm] = id
		if _, owned := r.knownOwners[id]; !owned {
			r.knownOwners[id] = norm
		}
		if uint32(id) >= r.nextID {
			r.nextID = uint32(id) + 1
		}
	}
	r.fromPersisted = len(r.knownIDs) > 0
	r.current.Store(newSnapshot(newAirFamily()))
	r.mu.Unlock()

	var stats InitStats
	for _, name := range knownFamilies {
		uri, err := ParseURI(name)
		if err != nil {
			r.logger.Warn("Пропущено семейство с некорректным URI %q: %v", name, err)
			stats.Skipped = append(stats.Skipped, name)
			continue
		}
		if uri.FamilyURI().Shapeless() == AirURI {
			continue
		}
		if _, err := r.EnsureFamily(uri); err != nil {
			r.logger.Warn("Семейство %s не загружено: %v", uri, err)
			stats.Skipped = append(stats.Skipped, name)
			continue
		}
		stats.Registered++
	}

	if r.authoritative && r.loader != nil {
		stats.Registered += r.registerAvailable()
	}

	snap := r.current.Load()
	span.SetAttributes(
		attribute.Int("registry.families", snap.FamilyCount()),
		attribute.Int("registry.skipped", len(stats.Skipped)),
	)
	r.logger.Info("Реестр блоков инициализирован: %d семейств, %d блоков, пропущено %d",
		snap.FamilyCount(), snap.BlockCount(), len(stats.Skipped))
	return stats
}

// registerAvailable регистрирует все определения ассетов, которых ещё нет в реестре
func (r *Registry) registerAvailable() int {
	defs := r.loader.Assets().ListFamilyDefinitions()
	sort.Slice(defs, func(i, j int) bool { return defs[i].String() < defs[j].String() })

	registered := 0
	for _, defURI := range defs {
		for _, family := range r.loader.LoadAll(defURI) {
			r.mu.Lock()
			if _, exists := r.current.Load().Family(family.uri); exists {
				r.mu.Unlock()
				continue
			}
			snap := r.registerLocked(family)
			r.mu.Unlock()
			r.observer.FamilyRegistered(family, snap)
			registered++
		}
	}
	return registered
}

// Mapping возвращает таблицу uri→id всех блоков с реальным id (без воздуха)
func (r *Registry) Mapping() map[string]BlockID {
	snap := r.current.Load()
	out := make(map[string]BlockID, len(snap.idByURI))
	for key, id := range snap.idByURI {
		if id == AirID {
			continue
		}
		out[key] = id
	}
	return out
}

// RegisteredFamilies возвращает URI зарегистрированных семейств (без воздуха)
func (r *Registry) RegisteredFamilies() []string {
	snap := r.current.Load()
	out := make([]string, 0, len(snap.families))
	for key, f := range snap.families {
		if f.uri == AirURI {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Export возвращает состояние для сохранения
func (r *Registry) Export() *PersistedMapping {
	return &PersistedMapping{
		Families: r.RegisteredFamilies(),
		IDs:      r.Mapping(),
	}
}

// Families возвращает зарегистрированные семейства текущего снимка
func (r *Registry) Families() []*Family {
	return r.current.Load().Families()
}

// Stats сводка по текущему снимку
type Stats struct {
	Families      int    `json:"families"`
	Blocks        int    `json:"blocks"`
	WithoutID     int    `json:"without_id"`
	NextID        uint32 `json:"next_id"`
	Authoritative bool   `json:"authoritative"`
}

// Stats возвращает сводку по реестру
func (r *Registry) Stats() Stats {
	snap := r.current.Load()
	r.mu.Lock()
	next := r.nextID
	r.mu.Unlock()
	return Stats{
		Families:      snap.FamilyCount(),
		Blocks:        snap.BlockCount(),
		WithoutID:     snap.BlockCount() - len(snap.blocksByID),
		NextID:        next,
		Authoritative: r.authoritative,
	}
}
