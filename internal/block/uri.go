package block

import (
	"fmt"
	"strings"
)

// DefaultShape форма по умолчанию. Семейства с этой формой хранятся без суффикса формы.
const DefaultShape = "engine:cube"

// AirURI URI встроенного семейства воздуха
var AirURI = BlockURI{Module: "engine", Family: "air"}

// BlockURI идентифицирует семейство или конкретный блок:
//
//	module:family[:shapeModule:shape][.identifier]
//
// Все части хранятся в нижнем регистре.
type BlockURI struct {
	Module      string
	Family      string
	ShapeModule string
	Shape       string
	Identifier  string
}

// ParseURI разбирает строковое представление URI
func ParseURI(s string) (BlockURI, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	main, identifier, hasIdentifier := strings.Cut(s, ".")
	if hasIdentifier && (identifier == "" || strings.ContainsAny(identifier, ":.")) {
		return BlockURI{}, fmt.Errorf("%w: %q", ErrInvalidURI, s)
	}

	parts := strings.Split(main, ":")
	for _, p := range parts {
		if p == "" {
			return BlockURI{}, fmt.Errorf("%w: %q", ErrInvalidURI, s)
		}
	}

	var uri BlockURI
	switch len(parts) {
	case 2:
		uri = BlockURI{Module: parts[0], Family: parts[1]}
	case 4:
		uri = BlockURI{Module: parts[0], Family: parts[1], ShapeModule: parts[2], Shape: parts[3]}
	default:
		return BlockURI{}, fmt.Errorf("%w: %q", ErrInvalidURI, s)
	}
	uri.Identifier = identifier
	return uri, nil
}

// MustParseURI как ParseURI, но паникует при ошибке. Для констант и тестов.
func MustParseURI(s string) BlockURI {
	uri, err := ParseURI(s)
	if err != nil {
		panic(err)
	}
	return uri
}

// String возвращает каноническое строковое представление
func (u BlockURI) String() string {
	var sb strings.Builder
	sb.WriteString(u.Module)
	sb.WriteByte(':')
	sb.WriteString(u.Family)
	if u.HasShape() {
		sb.WriteByte(':')
		sb.WriteString(u.ShapeModule)
		sb.WriteByte(':')
		sb.WriteString(u.Shape)
	}
	if u.Identifier != "" {
		sb.WriteByte('.')
		sb.WriteString(u.Identifier)
	}
	return sb.String()
}

// IsValid сообщает, заполнены ли обязательные части
func (u BlockURI) IsValid() bool {
	return u.Module != "" && u.Family != "" && (u.ShapeModule == "") == (u.Shape == "")
}

// HasShape сообщает, указана ли форма
func (u BlockURI) HasShape() bool {
	return u.Shape != ""
}

// ShapeURI возвращает форму в виде "module:shape" или пустую строку
func (u BlockURI) ShapeURI() string {
	if !u.HasShape() {
		return ""
	}
	return u.ShapeModule + ":" + u.Shape
}

// FamilyURI отбрасывает идентификатор блока внутри семейства
func (u BlockURI) FamilyURI() BlockURI {
	u.Identifier = ""
	return u
}

// DefinitionURI отбрасывает форму и идентификатор: module:family
func (u BlockURI) DefinitionURI() BlockURI {
	return BlockURI{Module: u.Module, Family: u.Family}
}

// WithShape возвращает URI с указанной формой "module:shape".
// Форма по умолчанию не записывается.
func (u BlockURI) WithShape(shape string) BlockURI {
	shape = strings.ToLower(shape)
	if shape == "" || shape == DefaultShape {
		u.ShapeModule, u.Shape = "", ""
		return u
	}
	module, name, ok := strings.Cut(shape, ":")
	if !ok {
		module, name = "engine", shape
	}
	u.ShapeModule, u.Shape = module, name
	return u
}

// WithIdentifier возвращает URI конкретного блока семейства
func (u BlockURI) WithIdentifier(identifier string) BlockURI {
	u.Identifier = strings.ToLower(identifier)
	return u
}

// Shapeless нормализует URI: форма по умолчанию (куб) удаляется,
// так что "core:stone:engine:cube" и "core:stone" совпадают.
func (u BlockURI) Shapeless() BlockURI {
	if u.ShapeURI() == DefaultShape {
		u.ShapeModule, u.Shape = "", ""
	}
	return u
}
