package block

import (
	"github.com/annel0/block-engine/internal/logging"
)

// AssetSource поставщик определений семейств и форм
type AssetSource interface {
	// FamilyDefinition возвращает определение по URI вида module:family
	FamilyDefinition(uri BlockURI) (*FamilyDefinition, bool)
	// Shape возвращает форму по URI вида module:shape
	Shape(uri string) (*Shape, bool)
	// ListFamilyDefinitions перечисляет все доступные определения
	ListFamilyDefinitions() []BlockURI
}

// FamilyLoader превращает URI семейства в собранное семейство через ассеты
type FamilyLoader struct {
	assets  AssetSource
	builder Builder
	logger  *logging.Logger
}

// NewFamilyLoader создаёт загрузчик поверх источника ассетов
func NewFamilyLoader(assets AssetSource, logger *logging.Logger) *FamilyLoader {
	if logger == nil {
		logger = logging.GetRegistryLogger()
	}
	return &FamilyLoader{assets: assets, logger: logger}
}

// Assets возвращает источник ассетов загрузчика
func (l *FamilyLoader) Assets() AssetSource {
	return l.assets
}

// Load собирает семейство для URI. Для freeform определения используется
// форма из URI или куб. Возвращает false, если определение отсутствует,
// помечено как шаблон или форма не найдена.
func (l *FamilyLoader) Load(uri BlockURI) (*Family, bool) {
	uri = uri.FamilyURI().Shapeless()
	def, ok := l.assets.FamilyDefinition(uri.DefinitionURI())
	if !ok || !def.IsLoadable() {
		l.logger.Debug("Определение семейства %s недоступно", uri)
		return nil, false
	}

	var shapeURI string
	switch {
	case def.Freeform:
		shapeURI = uri.ShapeURI()
	case uri.HasShape():
		l.logger.Warn("Семейство %s не поддерживает формы, запрошено %s", def.URI, uri)
		return nil, false
	default:
		shapeURI = def.Shape
	}

	shape, ok := l.resolveShape(shapeURI)
	if !ok {
		l.logger.Warn("Форма %s для семейства %s не найдена", shapeURI, uri)
		return nil, false
	}

	family, err := l.builder.BuildFamily(def, shape)
	if err != nil {
		l.logger.Warn("Не удалось собрать семейство %s: %v", uri, err)
		return nil, false
	}
	return family, true
}

// LoadAll собирает все семейства определения: для freeform по одному
// на каждую объявленную форму (куб, если формы не объявлены).
func (l *FamilyLoader) LoadAll(defURI BlockURI) []*Family {
	defURI = defURI.DefinitionURI()
	def, ok := l.assets.FamilyDefinition(defURI)
	if !ok || !def.IsLoadable() {
		return nil
	}
	if !def.Freeform {
		if f, ok := l.Load(defURI); ok {
			return []*Family{f}
		}
		return nil
	}

	shapes := def.Shapes
	if len(shapes) == 0 {
		shapes = []string{DefaultShape}
	}
	families := make([]*Family, 0, len(shapes))
	for _, shape := range shapes {
		if f, ok := l.Load(defURI.WithShape(shape)); ok {
			families = append(families, f)
		}
	}
	return families
}

func (l *FamilyLoader) resolveShape(uri string) (*Shape, bool) {
	if uri == "" {
		uri = DefaultShape
	}
	if shape, ok := l.assets.Shape(uri); ok {
		return shape, true
	}
	if uri == DefaultShape {
		return CubeShape(), true
	}
	return nil, false
}
