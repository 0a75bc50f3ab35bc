package api

import (
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/vec"
)

type blockView struct {
	ID              block.BlockID `json:"id"`
	HasID           bool          `json:"has_id"`
	URI             string        `json:"uri"`
	Family          string        `json:"family"`
	DisplayName     string        `json:"display_name"`
	Shape           string        `json:"shape,omitempty"`
	Yaw             int           `json:"yaw"`
	Pitch           int           `json:"pitch"`
	SupportRequired bool          `json:"support_required"`
	Attachable      []string      `json:"attachable_sides,omitempty"`
	SideSupport     bool          `json:"side_support"`
	AttachSupport   bool          `json:"attach_support"`
}

func newBlockView(b *block.Block) blockView {
	v := blockView{
		ID:              b.ID(),
		HasID:           b.HasID(),
		URI:             b.URI().String(),
		DisplayName:     b.DisplayName(),
		Shape:           b.ShapeURI(),
		Yaw:             b.Rotation().Yaw,
		Pitch:           b.Rotation().Pitch,
		SupportRequired: b.IsSupportRequired(),
		SideSupport:     b.Components().SideSupport != nil,
		AttachSupport:   b.Components().AttachSupportRequired,
	}
	if f := b.Family(); f != nil {
		v.Family = f.URI().String()
	}
	for _, side := range vec.AllSides {
		if b.CanAttachTo(side) {
			v.Attachable = append(v.Attachable, side.String())
		}
	}
	return v
}

type familyView struct {
	URI        string   `json:"uri"`
	Kind       string   `json:"kind"`
	Blocks     []string `json:"blocks"`
	Categories []string `json:"categories,omitempty"`
}

func newFamilyView(f *block.Family) familyView {
	v := familyView{
		URI:        f.URI().String(),
		Kind:       string(f.Kind()),
		Categories: f.Categories(),
	}
	for _, b := range f.Blocks() {
		v.Blocks = append(v.Blocks, b.URI().String())
	}
	return v
}
