package assets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.NewWriterLogger("assets", &bytes.Buffer{}, logging.TRACE)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMemorySource(t *testing.T) {
	m := NewMemorySource()
	m.AddFamily(&block.FamilyDefinition{URI: block.MustParseURI("core:b")})
	m.AddFamily(&block.FamilyDefinition{URI: block.MustParseURI("core:a")})

	_, ok := m.FamilyDefinition(block.MustParseURI("core:a:engine:stair.left"))
	assert.True(t, ok, "поиск идёт по module:family")
	assert.Equal(t, []block.BlockURI{block.MustParseURI("core:a"), block.MustParseURI("core:b")}, m.ListFamilyDefinitions())

	cube, ok := m.Shape(block.DefaultShape)
	require.True(t, ok)
	assert.True(t, cube.IsFullSide(vec.Top))
}

func TestYAMLSource_SectionsInheritBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "core/lamp.block.yaml", `
uri: core:lamp
kind: horizontal
base:
  display_name: Lamp
  luminance: 10
  components:
    side_support: {bottom: true, drop_delay_ms: 100}
sections:
  left:
    luminance: 3
    components:
      side_support: {sides: true}
`)

	src, err := NewYAMLSource(dir, testLogger())
	require.NoError(t, err)
	require.Empty(t, src.Errors())

	def, ok := src.FamilyDefinition(block.MustParseURI("core:lamp"))
	require.True(t, ok)
	assert.Equal(t, block.KindHorizontal, def.Kind)

	left := def.Section("left")
	assert.Equal(t, "Lamp", left.DisplayName, "поле унаследовано от base")
	assert.Equal(t, uint8(3), left.Luminance)
	require.NotNil(t, left.Components.SideSupport)
	assert.True(t, left.Components.SideSupport.Bottom)
	assert.True(t, left.Components.SideSupport.Sides)
	assert.Equal(t, int64(100), left.Components.SideSupport.DropDelayMs)

	assert.False(t, def.Base.Components.SideSupport.Sides, "секция не меняет base")
	assert.Equal(t, uint8(10), def.Section("front").Luminance)
}

func TestYAMLSource_ParentAndShapes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.block.yaml", "uri: core:base\ntemplate: true\nbase:\n  hardness: 7\n  attachment_allowed: true\n")
	writeFile(t, dir, "brick.block.yaml", "uri: core:brick\nparent: core:base\nfreeform: true\nshapes: [engine:slab]\n")
	writeFile(t, dir, "slab.shape.yaml", "uri: engine:slab\nfull_sides: [bottom]\nmesh_sides: [top, bottom]\n")

	src, err := NewYAMLSource(dir, testLogger())
	require.NoError(t, err)

	brick, ok := src.FamilyDefinition(block.MustParseURI("core:brick"))
	require.True(t, ok)
	assert.Equal(t, 7, brick.Base.Hardness)
	assert.True(t, brick.Freeform)

	slab, ok := src.Shape("engine:slab")
	require.True(t, ok)
	assert.True(t, slab.IsFullSide(vec.Bottom))
	assert.False(t, slab.IsFullSide(vec.Top))
	assert.True(t, slab.HasMeshPart(vec.Top))

	loader := block.NewFamilyLoader(src, testLogger())
	_, ok = loader.Load(block.MustParseURI("core:base"))
	assert.False(t, ok, "шаблон не загружается")
	families := loader.LoadAll(block.MustParseURI("core:brick"))
	require.Len(t, families, 1)
	assert.Equal(t, "core:brick:engine:slab", families[0].URI().String())
}

func TestYAMLSource_InvalidDocumentsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.block.yaml", "uri: core:good\n")
	writeFile(t, dir, "kind.block.yaml", "uri: core:bad\nkind: diagonal\n")
	writeFile(t, dir, "nouri.block.yaml", "kind: symmetric\n")
	writeFile(t, dir, "orphan.block.yaml", "uri: core:orphan\nparent: core:nowhere\n")
	writeFile(t, dir, "a.block.yaml", "uri: core:a\nparent: core:b\n")
	writeFile(t, dir, "b.block.yaml", "uri: core:b\nparent: core:a\n")
	writeFile(t, dir, "bad.shape.yaml", "uri: engine:bad\nfull_sides: [up]\n")
	writeFile(t, dir, "notes.txt", "не ассет")

	src, err := NewYAMLSource(dir, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []block.BlockURI{block.MustParseURI("core:good")}, src.ListFamilyDefinitions())
	assert.Len(t, src.Errors(), 6)
	_, ok := src.Shape("engine:bad")
	assert.False(t, ok)
}

func TestYAMLSource_Reload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.block.yaml", "uri: core:one\n")
	src, err := NewYAMLSource(dir, testLogger())
	require.NoError(t, err)
	assert.Len(t, src.ListFamilyDefinitions(), 1)

	writeFile(t, dir, "two.block.yaml", "uri: core:two\n")
	require.NoError(t, src.Reload())
	assert.Len(t, src.ListFamilyDefinitions(), 2)
}

func TestYAMLSource_MissingDir(t *testing.T) {
	_, err := NewYAMLSource(filepath.Join(t.TempDir(), "absent"), testLogger())
	assert.Error(t, err)
}

func TestYAMLSource_BundledAssets(t *testing.T) {
	src, err := NewYAMLSource(filepath.Join("..", "..", "assets", "blocks"), testLogger())
	require.NoError(t, err)
	require.Empty(t, src.Errors(), "встроенные ассеты должны проходить схему")

	r := block.NewRegistry(block.Options{
		Authoritative: true,
		Loader:        block.NewFamilyLoader(src, testLogger()),
		Logger:        testLogger(),
	})
	r.Initialise(context.Background(), nil, nil)

	for _, name := range []string{"core:stone", "core:cobblestone:engine:stair", "core:torch.left", "core:lantern.top", "core:vine.back"} {
		b, err := r.BlockByName(name)
		require.NoError(t, err, name)
		assert.True(t, b.HasID(), name)
	}
	_, err = r.BlockByName("core:base_stone")
	assert.ErrorIs(t, err, block.ErrNotFound)

	stone, _ := r.BlockByName("core:stone")
	assert.Equal(t, 4, stone.Properties().Hardness)
}
