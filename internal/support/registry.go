package support

import (
	"sort"

	"github.com/annel0/block-engine/internal/vec"
)

// Registry упорядоченный по приоритету набор правил опоры.
// Правила регистрируются при старте, после этого набор только читается.
type Registry struct {
	rules    []Rule
	observer Observer
}

// NewRegistry создаёт пустой набор правил
func NewRegistry(observer Observer) *Registry {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Registry{observer: observer}
}

// NewDefaultRegistry регистрирует три встроенных правила
func NewDefaultRegistry(world World, scheduler DelayScheduler, sender EventSender, observer Observer) (*Registry, *SideSupport) {
	r := NewRegistry(observer)
	side := NewSideSupport(world, scheduler, sender, nil)
	r.Register(NewAttachSupport(world))
	r.Register(NewBottomSupport(world))
	r.Register(side)
	return r, side
}

// Register добавляет правило. Правила с равным приоритетом сохраняют порядок регистрации.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority() < r.rules[j].Priority()
	})
}

// Rules возвращает правила в порядке проверки
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// IsSufficientlySupported позиция не опёрта, только если об этом сообщает
// хотя бы одно правило
func (r *Registry) IsSufficientlySupported(pos vec.Vec3, overrides Overrides) bool {
	_, ok := r.unsupportedBy(pos, overrides)
	return !ok
}

func (r *Registry) unsupportedBy(pos vec.Vec3, overrides Overrides) (Rule, bool) {
	for _, rule := range r.rules {
		if !rule.IsSufficientlySupported(pos, overrides) {
			return rule, true
		}
	}
	return nil, false
}

// ValidatePlacement проверяет пакет целиком с учётом его же блоков.
// Одна позиция без опоры отклоняет весь пакет: возвращается *PlacementError.
func (r *Registry) ValidatePlacement(batch Overrides) error {
	positions := make([]vec.Vec3, 0, len(batch))
	for pos := range batch {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return lessVec(positions[i], positions[j]) })

	for _, rule := range r.rules {
		for _, pos := range positions {
			if rule.IsSufficientlySupported(pos, batch) {
				continue
			}
			r.observer.PlacementRejected(rule.Name())
			return &PlacementError{Position: pos, Rule: rule.Name(), Block: batch[pos].URI().String()}
		}
	}
	return nil
}

func lessVec(a, b vec.Vec3) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}
