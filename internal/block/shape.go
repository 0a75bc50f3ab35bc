package block

import "github.com/annel0/block-engine/internal/vec"

// Shape геометрия блока в терминах, важных для опоры и отсечения граней:
// какие стороны полностью закрыты и на каких сторонах есть видимая часть сетки.
type Shape struct {
	uri       string
	fullSides [vec.SideCount]bool
	meshSides [vec.SideCount]bool
}

// NewShape создаёт форму. Сторона с полной гранью всегда имеет и часть сетки.
func NewShape(uri string, fullSides, meshSides []vec.Side) *Shape {
	s := &Shape{uri: uri}
	for _, side := range meshSides {
		s.meshSides[side] = true
	}
	for _, side := range fullSides {
		s.fullSides[side] = true
		s.meshSides[side] = true
	}
	return s
}

// CubeShape возвращает куб: все шесть сторон полные
func CubeShape() *Shape {
	return NewShape(DefaultShape, vec.AllSides[:], nil)
}

func (s *Shape) URI() string { return s.uri }

// IsFullSide сообщает, закрыта ли сторона целиком
func (s *Shape) IsFullSide(side vec.Side) bool { return s.fullSides[side] }

// HasMeshPart сообщает, есть ли на стороне видимая часть сетки
func (s *Shape) HasMeshPart(side vec.Side) bool { return s.meshSides[side] }
