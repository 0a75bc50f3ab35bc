package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyLoader_Load(t *testing.T) {
	tmpl := simpleDef("core:base_stone")
	tmpl.Template = true
	assets := newTestAssets(simpleDef("core:stone"), tmpl)
	logger, _ := captureLogger()
	l := NewFamilyLoader(assets, logger)

	f, ok := l.Load(MustParseURI("core:stone"))
	require.True(t, ok)
	assert.Equal(t, "core:stone", f.URI().String())

	_, ok = l.Load(MustParseURI("core:missing"))
	assert.False(t, ok, "отсутствующее определение")

	_, ok = l.Load(MustParseURI("core:base_stone"))
	assert.False(t, ok, "шаблон не загружается")

	_, ok = l.Load(MustParseURI("core:stone:engine:stair"))
	assert.False(t, ok, "не-freeform семейство не принимает форму")

	f, ok = l.Load(MustParseURI("core:stone:engine:cube.front"))
	require.True(t, ok, "куб и идентификатор нормализуются")
	assert.Equal(t, "core:stone", f.URI().String())
}

func TestFamilyLoader_Freeform(t *testing.T) {
	def := simpleDef("core:plank")
	def.Freeform = true
	def.Shapes = []string{"engine:cube", "engine:stair", "engine:slope"}
	assets := newTestAssets(def).withShape(stairShape())
	logger, buf := captureLogger()
	l := NewFamilyLoader(assets, logger)

	f, ok := l.Load(MustParseURI("core:plank:engine:stair"))
	require.True(t, ok)
	assert.Equal(t, "engine:stair", f.Archetype().ShapeURI())

	families := l.LoadAll(MustParseURI("core:plank"))
	var uris []string
	for _, f := range families {
		uris = append(uris, f.URI().String())
	}
	assert.Equal(t, []string{"core:plank", "core:plank:engine:stair"}, uris, "форма slope отсутствует и пропускается")
	assert.Contains(t, buf.String(), "engine:slope")
}
