package support

import (
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/vec"
)

// SupportCheckAction id отложенной перепроверки SideSupport
const SupportCheckAction = "support:side_check"

// SideSupport блок с маркером side_support держится, если хотя бы в одном
// разрешённом направлении (низ, верх, стороны) есть сосед, к которому можно прикрепиться.
// При потере опоры с ненулевой задержкой назначается одна отложенная перепроверка.
type SideSupport struct {
	world     World
	scheduler DelayScheduler
	sender    EventSender
	logger    *logging.Logger
}

func NewSideSupport(world World, scheduler DelayScheduler, sender EventSender, logger *logging.Logger) *SideSupport {
	if logger == nil {
		logger = logging.GetSupportLogger()
	}
	return &SideSupport{world: world, scheduler: scheduler, sender: sender, logger: logger}
}

func (*SideSupport) Name() string  { return "side" }
func (*SideSupport) Priority() int { return PrioritySide }
func (*SideSupport) rule()         {}

func allowedSides(spec *block.SideSupportSpec) []vec.Side {
	var sides []vec.Side
	if spec.Bottom {
		sides = append(sides, vec.Bottom)
	}
	if spec.Top {
		sides = append(sides, vec.Top)
	}
	if spec.Sides {
		sides = append(sides, vec.HorizontalSides[:]...)
	}
	return sides
}

func isAllowed(spec *block.SideSupportSpec, side vec.Side) bool {
	switch {
	case side == vec.Bottom:
		return spec.Bottom
	case side == vec.Top:
		return spec.Top
	default:
		return spec.Sides
	}
}

func (s *SideSupport) marker(v view, pos vec.Vec3) *block.SideSupportSpec {
	c, ok := v.components(pos)
	if !ok {
		return nil
	}
	return c.SideSupport
}

func (s *SideSupport) supported(v view, pos vec.Vec3, spec *block.SideSupportSpec) bool {
	for _, side := range allowedSides(spec) {
		if v.attachable(pos, side) {
			return true
		}
	}
	return false
}

// IsSufficientlySupported без маркера позиция считается опёртой
func (s *SideSupport) IsSufficientlySupported(pos vec.Vec3, overrides Overrides) bool {
	v := view{world: s.world, overrides: overrides}
	spec := s.marker(v, pos)
	if spec == nil {
		return true
	}
	return s.supported(v, pos, spec)
}

func (s *SideSupport) ShouldBeRemovedDueToChange(pos vec.Vec3, side vec.Side) Removal {
	v := view{world: s.world}
	spec := s.marker(v, pos)
	if spec == nil || !isAllowed(spec, side) || s.supported(v, pos, spec) {
		return RemoveNone
	}
	if spec.DropDelayMs <= 0 {
		return RemoveImmediately
	}

	ent, ok := s.world.BlockEntityAt(pos)
	if !ok {
		return RemoveNone
	}
	// потеря уже учтена при назначении перепроверки
	if s.scheduler.HasPending(ent.ID, SupportCheckAction) {
		return RemoveNone
	}
	s.scheduler.ScheduleOnce(ent.ID, SupportCheckAction, time.Duration(spec.DropDelayMs)*time.Millisecond)
	s.logger.Debug("Блок в %s потерял опору, перепроверка через %d мс", pos, spec.DropDelayMs)
	return RemoveDelayed
}

// OnDelayedCheck обрабатывает созревшую перепроверку. Если сущности уже нет
// или опора восстановлена, ничего не происходит. Возвращает true, если отправлено разрушение.
func (s *SideSupport) OnDelayedCheck(entity EntityID, actionID string) bool {
	if actionID != SupportCheckAction {
		return false
	}
	pos, ok := s.world.BlockEntityPosition(entity)
	if !ok {
		return false
	}
	v := view{world: s.world}
	spec := s.marker(v, pos)
	if spec == nil || s.supported(v, pos, spec) {
		return false
	}
	s.sender.SendDestroy(DestroyEvent{
		Cause:    CauseSupportRemoved,
		Position: pos,
		Entity:   entity,
		Rule:     s.Name(),
	})
	return true
}
