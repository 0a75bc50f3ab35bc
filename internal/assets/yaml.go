package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/vec"
	"gopkg.in/yaml.v3"
)

const (
	familySuffix = ".block.yaml"
	shapeSuffix  = ".shape.yaml"
)

// familyDocument YAML-представление определения семейства.
// Секции хранятся узлами: они декодируются поверх копии базовой секции.
type familyDocument struct {
	URI        string               `yaml:"uri"`
	Parent     string               `yaml:"parent"`
	Kind       string               `yaml:"kind"`
	Freeform   bool                 `yaml:"freeform"`
	Template   bool                 `yaml:"template"`
	Shape      string               `yaml:"shape"`
	Shapes     []string             `yaml:"shapes"`
	Categories []string             `yaml:"categories"`
	Base       yaml.Node            `yaml:"base"`
	Sections   map[string]yaml.Node `yaml:"sections"`
}

type shapeDocument struct {
	URI       string   `yaml:"uri"`
	FullSides []string `yaml:"full_sides"`
	MeshSides []string `yaml:"mesh_sides"`
}

// YAMLSource читает определения семейств (*.block.yaml) и формы (*.shape.yaml)
// из каталога. Каждый документ проверяется по JSON Schema.
type YAMLSource struct {
	dir    string
	logger *logging.Logger

	mu     sync.RWMutex
	mem    *MemorySource
	errors []error
}

// NewYAMLSource читает каталог. Ошибочные документы пропускаются и доступны через Errors.
func NewYAMLSource(dir string, logger *logging.Logger) (*YAMLSource, error) {
	if logger == nil {
		logger = logging.GetComponentLogger("assets")
	}
	s := &YAMLSource{dir: dir, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload перечитывает каталог и атомарно заменяет содержимое источника
func (s *YAMLSource) Reload() error {
	docs := make(map[string]*familyDocument)
	mem := NewMemorySource()
	var problems []error

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, familySuffix):
			doc, err := readFamilyDocument(path)
			if err != nil {
				problems = append(problems, err)
				return nil
			}
			docs[doc.URI] = doc
		case strings.HasSuffix(path, shapeSuffix):
			shape, err := readShape(path)
			if err != nil {
				problems = append(problems, err)
				return nil
			}
			mem.AddShape(shape)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("не удалось прочитать каталог ассетов %s: %w", s.dir, err)
	}

	r := &resolver{docs: docs, resolved: make(map[string]*block.FamilyDefinition), visiting: make(map[string]bool)}
	for uri := range docs {
		def, err := r.resolve(uri)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		mem.AddFamily(def)
	}

	for _, p := range problems {
		s.logger.Warn("Ассет пропущен: %v", p)
	}
	s.logger.Info("Загружено определений семейств: %d, ошибок: %d", len(mem.ListFamilyDefinitions()), len(problems))

	s.mu.Lock()
	s.mem = mem
	s.errors = problems
	s.mu.Unlock()
	return nil
}

// Errors возвращает ошибки последней загрузки
func (s *YAMLSource) Errors() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]error(nil), s.errors...)
}

func (s *YAMLSource) source() *MemorySource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem
}

func (s *YAMLSource) FamilyDefinition(uri block.BlockURI) (*block.FamilyDefinition, bool) {
	return s.source().FamilyDefinition(uri)
}

func (s *YAMLSource) Shape(uri string) (*block.Shape, bool) {
	return s.source().Shape(uri)
}

func (s *YAMLSource) ListFamilyDefinitions() []block.BlockURI {
	return s.source().ListFamilyDefinitions()
}

func decodeValidated(path string, raw []byte, validate func(any) error, out any) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := validate(generic); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func readFamilyDocument(path string) (*familyDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc familyDocument
	err = decodeValidated(path, raw, func(v any) error { return validateDocument(familySchema, v) }, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func readShape(path string) (*block.Shape, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc shapeDocument
	err = decodeValidated(path, raw, func(v any) error { return validateDocument(shapeSchema, v) }, &doc)
	if err != nil {
		return nil, err
	}
	full, err := parseSides(doc.FullSides)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh, err := parseSides(doc.MeshSides)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return block.NewShape(doc.URI, full, mesh), nil
}

func parseSides(names []string) ([]vec.Side, error) {
	out := make([]vec.Side, 0, len(names))
	for _, n := range names {
		s, err := vec.ParseSide(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

var errParentCycle = errors.New("цикл наследования определений")

// resolver собирает определения с учётом parent: базовая секция потомка
// декодируется поверх базовой секции родителя.
type resolver struct {
	docs     map[string]*familyDocument
	resolved map[string]*block.FamilyDefinition
	visiting map[string]bool
}

func (r *resolver) resolve(uri string) (*block.FamilyDefinition, error) {
	if def, ok := r.resolved[uri]; ok {
		return def, nil
	}
	doc, ok := r.docs[uri]
	if !ok {
		return nil, fmt.Errorf("определение %s не найдено", uri)
	}
	if r.visiting[uri] {
		return nil, fmt.Errorf("%w: %s", errParentCycle, uri)
	}
	r.visiting[uri] = true
	defer delete(r.visiting, uri)

	parsed, err := block.ParseURI(doc.URI)
	if err != nil {
		return nil, err
	}

	var base block.SectionDefinition
	if doc.Parent != "" {
		parent, err := r.resolve(doc.Parent)
		if err != nil {
			return nil, fmt.Errorf("%s: родитель %s: %w", uri, doc.Parent, err)
		}
		base = copySection(parent.Base)
	}
	if err := decodeSection(&doc.Base, &base); err != nil {
		return nil, fmt.Errorf("%s: base: %w", uri, err)
	}

	def := &block.FamilyDefinition{
		URI:        parsed,
		Kind:       block.FamilyKind(doc.Kind),
		Freeform:   doc.Freeform,
		Template:   doc.Template,
		Shape:      doc.Shape,
		Shapes:     doc.Shapes,
		Categories: doc.Categories,
		Base:       base,
	}
	if len(doc.Sections) > 0 {
		def.Sections = make(map[string]block.SectionDefinition, len(doc.Sections))
		for name, node := range doc.Sections {
			section := copySection(base)
			if err := decodeSection(&node, &section); err != nil {
				return nil, fmt.Errorf("%s: секция %s: %w", uri, name, err)
			}
			def.Sections[name] = section
		}
	}
	r.resolved[uri] = def
	return def, nil
}

// decodeSection декодирует узел поверх уже заполненной секции: отсутствующие
// в узле поля сохраняют унаследованные значения
func decodeSection(node *yaml.Node, out *block.SectionDefinition) error {
	if node.Kind == 0 {
		return nil
	}
	return node.Decode(out)
}

func copySection(s block.SectionDefinition) block.SectionDefinition {
	if s.Components.SideSupport != nil {
		spec := *s.Components.SideSupport
		s.Components.SideSupport = &spec
	}
	return s
}
