package assets

import (
	"sort"
	"sync"

	"github.com/annel0/block-engine/internal/block"
)

// MemorySource хранит определения и формы в памяти. Безопасен для
// конкурентного использования: ассеты можно добавлять во время работы.
type MemorySource struct {
	mu     sync.RWMutex
	defs   map[string]*block.FamilyDefinition
	shapes map[string]*block.Shape
}

// NewMemorySource создаёт источник, содержащий только встроенный куб
func NewMemorySource() *MemorySource {
	return &MemorySource{
		defs:   make(map[string]*block.FamilyDefinition),
		shapes: map[string]*block.Shape{block.DefaultShape: block.CubeShape()},
	}
}

// AddFamily добавляет или заменяет определение семейства
func (m *MemorySource) AddFamily(def *block.FamilyDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[def.URI.DefinitionURI().String()] = def
}

// AddShape добавляет или заменяет форму
func (m *MemorySource) AddShape(shape *block.Shape) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shapes[shape.URI()] = shape
}

func (m *MemorySource) FamilyDefinition(uri block.BlockURI) (*block.FamilyDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.defs[uri.DefinitionURI().String()]
	return def, ok
}

func (m *MemorySource) Shape(uri string) (*block.Shape, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shapes[uri]
	return s, ok
}

// ListFamilyDefinitions возвращает URI определений в лексикографическом порядке
func (m *MemorySource) ListFamilyDefinitions() []block.BlockURI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]block.BlockURI, 0, len(m.defs))
	for _, def := range m.defs {
		out = append(out, def.URI.DefinitionURI())
	}
	sortURIs(out)
	return out
}

func sortURIs(uris []block.BlockURI) {
	sort.Slice(uris, func(i, j int) bool { return uris[i].String() < uris[j].String() })
}
