package block

import (
	"bytes"
	"sort"

	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/vec"
)

// testAssets минимальный источник ассетов для тестов пакета
type testAssets struct {
	defs   map[string]*FamilyDefinition
	shapes map[string]*Shape
}

func newTestAssets(defs ...*FamilyDefinition) *testAssets {
	a := &testAssets{
		defs:   make(map[string]*FamilyDefinition),
		shapes: map[string]*Shape{DefaultShape: CubeShape()},
	}
	for _, d := range defs {
		a.defs[d.URI.DefinitionURI().String()] = d
	}
	return a
}

func (a *testAssets) withShape(s *Shape) *testAssets {
	a.shapes[s.URI()] = s
	return a
}

func (a *testAssets) FamilyDefinition(uri BlockURI) (*FamilyDefinition, bool) {
	d, ok := a.defs[uri.String()]
	return d, ok
}

func (a *testAssets) Shape(uri string) (*Shape, bool) {
	s, ok := a.shapes[uri]
	return s, ok
}

func (a *testAssets) ListFamilyDefinitions() []BlockURI {
	out := make([]BlockURI, 0, len(a.defs))
	for _, d := range a.defs {
		out = append(out, d.URI)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func simpleDef(uri string) *FamilyDefinition {
	return &FamilyDefinition{
		URI:  MustParseURI(uri),
		Kind: KindSymmetric,
		Base: SectionDefinition{Properties: Properties{AttachmentAllowed: true, Hardness: 3}},
	}
}

// stairShape полная задняя и нижняя грани
func stairShape() *Shape {
	return NewShape("engine:stair", []vec.Side{vec.Back, vec.Bottom}, vec.AllSides[:])
}

func captureLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWriterLogger("test", &buf, logging.TRACE), &buf
}

func newTestRegistry(authoritative bool, assets AssetSource) (*Registry, *bytes.Buffer) {
	logger, buf := captureLogger()
	return NewRegistry(Options{
		Authoritative: authoritative,
		Loader:        NewFamilyLoader(assets, logger),
		Logger:        logger,
	}), buf
}
