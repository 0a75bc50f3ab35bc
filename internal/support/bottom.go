package support

import "github.com/annel0/block-engine/internal/vec"

// BottomSupport блок со свойством support_required держится, только если
// снизу полная верхняя грань соседа.
type BottomSupport struct {
	world World
}

func NewBottomSupport(world World) *BottomSupport {
	return &BottomSupport{world: world}
}

func (*BottomSupport) Name() string  { return "bottom" }
func (*BottomSupport) Priority() int { return PriorityBottom }
func (*BottomSupport) rule()         {}

func (s *BottomSupport) supported(v view, pos vec.Vec3) bool {
	if !v.blockAt(pos).IsSupportRequired() {
		return true
	}
	below := pos.Side(vec.Bottom)
	if !s.world.IsRelevant(below) {
		return true
	}
	return v.blockAt(below).IsFullSide(vec.Top)
}

func (s *BottomSupport) IsSufficientlySupported(pos vec.Vec3, overrides Overrides) bool {
	return s.supported(view{world: s.world, overrides: overrides}, pos)
}

func (s *BottomSupport) ShouldBeRemovedDueToChange(pos vec.Vec3, side vec.Side) Removal {
	if side != vec.Bottom {
		return RemoveNone
	}
	if s.supported(view{world: s.world}, pos) {
		return RemoveNone
	}
	return RemoveImmediately
}
