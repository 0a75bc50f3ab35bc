package support

import (
	"errors"
	"fmt"

	"github.com/annel0/block-engine/internal/vec"
)

// Removal решение правила после изменения соседа
type Removal uint8

const (
	// RemoveNone блок остаётся
	RemoveNone Removal = iota
	// RemoveImmediately блок разрушается сразу
	RemoveImmediately
	// RemoveDelayed назначена отложенная перепроверка
	RemoveDelayed
)

func (r Removal) String() string {
	switch r {
	case RemoveImmediately:
		return "immediately"
	case RemoveDelayed:
		return "delayed"
	default:
		return "none"
	}
}

// Приоритеты встроенных правил, меньший проверяется раньше
const (
	PriorityAttach = -100
	PriorityBottom = 0
	PrioritySide   = 100
)

// Rule правило опоры. Набор правил закрыт: AttachSupport, BottomSupport, SideSupport.
type Rule interface {
	Name() string
	Priority() int
	// IsSufficientlySupported проверяет опору с учётом ещё не записанных блоков.
	// Правило, не относящееся к позиции, считает её опёртой.
	IsSufficientlySupported(pos vec.Vec3, overrides Overrides) bool
	// ShouldBeRemovedDueToChange решает судьбу блока в pos после изменения соседа со стороны side
	ShouldBeRemovedDueToChange(pos vec.Vec3, side vec.Side) Removal

	rule()
}

// ErrUnsupportedPlacement пакет установки содержит блок без опоры
var ErrUnsupportedPlacement = errors.New("размещение без опоры")

// PlacementError описывает первую найденную позицию без опоры
type PlacementError struct {
	Position vec.Vec3
	Rule     string
	Block    string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("%v: %s в %s (правило %s)", ErrUnsupportedPlacement, e.Block, e.Position, e.Rule)
}

func (e *PlacementError) Unwrap() error { return ErrUnsupportedPlacement }
