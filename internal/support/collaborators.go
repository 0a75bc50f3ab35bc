// Package support проверяет, держится ли блок физически, и распространяет
// разрушение на соседей, потерявших опору.
package support

import (
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/vec"
)

// EntityID идентификатор сущности блока
type EntityID = uint64

// CauseSupportRemoved причина разрушения блока, потерявшего опору
const CauseSupportRemoved = "support removed"

// BlockEntity сущность, созданная для блока с компонентами
type BlockEntity struct {
	ID         EntityID
	Components block.Components
}

// World хранилище блоков мира
type World interface {
	BlockAt(pos vec.Vec3) *block.Block
	// IsRelevant сообщает, загружена ли позиция. Вне загруженной области
	// опора всегда считается достаточной.
	IsRelevant(pos vec.Vec3) bool
	BlockEntityAt(pos vec.Vec3) (BlockEntity, bool)
	BlockEntityPosition(id EntityID) (vec.Vec3, bool)
}

// DestroyEvent запрос на разрушение блока
type DestroyEvent struct {
	Cause    string
	Position vec.Vec3
	Entity   EntityID
	Rule     string
}

// EventSender доставляет запросы на разрушение
type EventSender interface {
	SendDestroy(ev DestroyEvent)
}

// DelayScheduler планировщик разовых отложенных проверок
type DelayScheduler interface {
	ScheduleOnce(entity EntityID, actionID string, delay time.Duration)
	HasPending(entity EntityID, actionID string) bool
}

// Observer получает статистику работы правил
type Observer interface {
	SupportLost(rule string, removal Removal)
	PlacementRejected(rule string)
}

type nopObserver struct{}

func (nopObserver) SupportLost(string, Removal) {}
func (nopObserver) PlacementRejected(string)    {}

// Overrides ещё не записанные в мир блоки пакетной установки
type Overrides map[vec.Vec3]*block.Block

// view мир с наложенными поверх него отложенными установками
type view struct {
	world     World
	overrides Overrides
}

func (v view) blockAt(pos vec.Vec3) *block.Block {
	if b, ok := v.overrides[pos]; ok {
		return b
	}
	return v.world.BlockAt(pos)
}

// components возвращает компоненты сущности в позиции. Для отложенной установки
// сущности ещё нет, компоненты берутся из дескриптора.
func (v view) components(pos vec.Vec3) (block.Components, bool) {
	if b, ok := v.overrides[pos]; ok {
		c := b.Components()
		return c, !c.IsEmpty()
	}
	ent, ok := v.world.BlockEntityAt(pos)
	if !ok {
		return block.Components{}, false
	}
	return ent.Components, true
}

// attachable сообщает, даёт ли сосед со стороны side опору блоку в pos
func (v view) attachable(pos vec.Vec3, side vec.Side) bool {
	neighbor := pos.Side(side)
	if !v.world.IsRelevant(neighbor) {
		return true
	}
	return v.blockAt(neighbor).CanAttachTo(side.Reverse())
}
