package support

import "github.com/annel0/block-engine/internal/vec"

// AttachSupport блок с маркером attach_support_required должен быть прикреплён
// к соседу с каждой стороны, на которой у него есть часть сетки.
type AttachSupport struct {
	world World
}

func NewAttachSupport(world World) *AttachSupport {
	return &AttachSupport{world: world}
}

func (*AttachSupport) Name() string  { return "attach" }
func (*AttachSupport) Priority() int { return PriorityAttach }
func (*AttachSupport) rule()         {}

func (a *AttachSupport) applies(v view, pos vec.Vec3) bool {
	c, ok := v.components(pos)
	return ok && c.AttachSupportRequired
}

func (a *AttachSupport) IsSufficientlySupported(pos vec.Vec3, overrides Overrides) bool {
	v := view{world: a.world, overrides: overrides}
	if !a.applies(v, pos) {
		return true
	}
	b := v.blockAt(pos)
	for _, side := range vec.AllSides {
		if b.HasMeshPart(side) && !v.attachable(pos, side) {
			return false
		}
	}
	return true
}

func (a *AttachSupport) ShouldBeRemovedDueToChange(pos vec.Vec3, side vec.Side) Removal {
	v := view{world: a.world}
	if !a.applies(v, pos) {
		return RemoveNone
	}
	if v.blockAt(pos).HasMeshPart(side) && !v.attachable(pos, side) {
		return RemoveImmediately
	}
	return RemoveNone
}
