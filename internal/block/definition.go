package block

// FamilyKind определяет, как из определения строятся блоки семейства
type FamilyKind string

const (
	// KindSymmetric один блок без поворотов
	KindSymmetric FamilyKind = "symmetric"
	// KindHorizontal четыре поворота вокруг вертикальной оси (front, left, back, right)
	KindHorizontal FamilyKind = "horizontal"
	// KindAllSides шесть ориентаций: четыре горизонтальные, top и bottom
	KindAllSides FamilyKind = "all_sides"
)

// Properties физические и визуальные свойства, копируемые из секции определения
// в дескриптор без изменений.
type Properties struct {
	DisplayName        string     `yaml:"display_name"`
	Liquid             bool       `yaml:"liquid"`
	Water              bool       `yaml:"water"`
	Lava               bool       `yaml:"lava"`
	Grass              bool       `yaml:"grass"`
	Ice                bool       `yaml:"ice"`
	Hardness           int        `yaml:"hardness"`
	AttachmentAllowed  bool       `yaml:"attachment_allowed"`
	ReplacementAllowed bool       `yaml:"replacement_allowed"`
	SupportRequired    bool       `yaml:"support_required"`
	Penetrable         bool       `yaml:"penetrable"`
	Targetable         bool       `yaml:"targetable"`
	Climbable          bool       `yaml:"climbable"`
	Translucent        bool       `yaml:"translucent"`
	DoubleSided        bool       `yaml:"double_sided"`
	ShadowCasting      bool       `yaml:"shadow_casting"`
	Waving             bool       `yaml:"waving"`
	Luminance          uint8      `yaml:"luminance"`
	Tint               [3]float32 `yaml:"tint,flow"`
	Mass               float32    `yaml:"mass"`
	DebrisOnDestroy    bool       `yaml:"debris_on_destroy"`
	KeepActive         bool       `yaml:"keep_active"`
}

// SideSupportSpec маркер сущности блока, задающий допустимые направления опоры
type SideSupportSpec struct {
	Bottom bool `yaml:"bottom"`
	Top    bool `yaml:"top"`
	Sides  bool `yaml:"sides"`
	// DropDelayMs задержка перед разрушением после потери опоры; 0: сразу
	DropDelayMs int64 `yaml:"drop_delay_ms"`
}

// Components компоненты, которые получает сущность блока при установке
type Components struct {
	AttachSupportRequired bool             `yaml:"attach_support_required"`
	SideSupport           *SideSupportSpec `yaml:"side_support"`
}

// IsEmpty сообщает, нужна ли блоку сущность вообще
func (c Components) IsEmpty() bool {
	return !c.AttachSupportRequired && c.SideSupport == nil
}

// SectionDefinition свойства одной секции определения
type SectionDefinition struct {
	Properties `yaml:",inline"`
	Components Components `yaml:"components"`
}

// FamilyDefinition описание семейства, поставляемое ассетами
type FamilyDefinition struct {
	URI  BlockURI
	Kind FamilyKind
	// Freeform определение параметризуется формой: одно семейство на каждую форму
	Freeform bool
	// Template шаблон для наследования, сам как семейство не загружается
	Template bool
	// Shape фиксированная форма не-freeform семейства; пусто: куб
	Shape string
	// Shapes формы, объявленные freeform семейством
	Shapes     []string
	Categories []string
	Base       SectionDefinition
	// Sections переопределения по идентификатору блока (front, top, ...)
	Sections map[string]SectionDefinition
}

// Section возвращает секцию для идентификатора блока
func (d *FamilyDefinition) Section(identifier string) SectionDefinition {
	if s, ok := d.Sections[identifier]; ok {
		return s
	}
	return d.Base
}

// IsLoadable сообщает, можно ли загрузить семейство по этому определению
func (d *FamilyDefinition) IsLoadable() bool {
	return d != nil && !d.Template
}
