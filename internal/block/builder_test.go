package block

import (
	"testing"

	"github.com/annel0/block-engine/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Symmetric(t *testing.T) {
	f, err := Builder{}.BuildFamily(simpleDef("core:stone"), nil)
	require.NoError(t, err)

	require.Len(t, f.Blocks(), 1)
	b := f.Archetype()
	assert.Equal(t, "core:stone", b.URI().String())
	assert.Same(t, f, b.Family())
	assert.Equal(t, 3, b.Properties().Hardness)
	assert.False(t, b.HasID(), "id назначает только реестр")
	for _, s := range vec.AllSides {
		assert.True(t, b.IsFullSide(s))
		assert.True(t, b.CanAttachTo(s))
	}
}

func TestBuilder_HorizontalRotatesShape(t *testing.T) {
	def := simpleDef("core:chair")
	def.Kind = KindHorizontal
	def.Sections = map[string]SectionDefinition{
		"left": {Properties: Properties{DisplayName: "Left chair"}},
	}

	f, err := Builder{}.BuildFamily(def, stairShape())
	require.NoError(t, err)
	require.Len(t, f.Blocks(), 4)

	front, ok := f.Block("front")
	require.True(t, ok)
	assert.True(t, front.IsFullSide(vec.Back))
	assert.False(t, front.IsFullSide(vec.Front))

	// yaw 1 переводит заднюю грань формы направо
	left, ok := f.Block("left")
	require.True(t, ok)
	assert.True(t, left.IsFullSide(vec.Right))
	assert.False(t, left.IsFullSide(vec.Back))
	assert.True(t, left.IsFullSide(vec.Bottom))
	assert.Equal(t, "Left chair", left.DisplayName())
	assert.Equal(t, "core:chair.back", f.BlockFacing(vec.Back).URI().String())
}

func TestBuilder_AllSides(t *testing.T) {
	def := simpleDef("core:log")
	def.Kind = KindAllSides
	f, err := Builder{}.BuildFamily(def, nil)
	require.NoError(t, err)

	var ids []string
	for _, b := range f.Blocks() {
		ids = append(ids, b.URI().Identifier)
	}
	assert.Equal(t, []string{"front", "left", "back", "right", "top", "bottom"}, ids)
	assert.Equal(t, "front", f.Archetype().URI().Identifier)
}

func TestBuilder_FreeformShapeInURI(t *testing.T) {
	def := simpleDef("core:plank")
	def.Freeform = true

	f, err := Builder{}.BuildFamily(def, stairShape())
	require.NoError(t, err)
	assert.Equal(t, "core:plank:engine:stair", f.URI().String())

	cube, err := Builder{}.BuildFamily(def, CubeShape())
	require.NoError(t, err)
	assert.Equal(t, "core:plank", cube.URI().String(), "куб не попадает в URI")
}

func TestBuilder_UnknownKind(t *testing.T) {
	def := simpleDef("core:odd")
	def.Kind = "diagonal"
	_, err := Builder{}.BuildFamily(def, nil)
	assert.ErrorIs(t, err, ErrUnloadable)
}

func TestBuilder_ComponentsCopied(t *testing.T) {
	def := simpleDef("core:torch")
	def.Base.Components.SideSupport = &SideSupportSpec{Bottom: true, Sides: true}

	f, err := Builder{}.BuildFamily(def, nil)
	require.NoError(t, err)
	def.Base.Components.SideSupport.Top = true
	assert.False(t, f.Archetype().Components().SideSupport.Top, "компоненты блока не зависят от определения")
}
