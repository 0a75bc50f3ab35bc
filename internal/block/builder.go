package block

import (
	"fmt"

	"github.com/annel0/block-engine/internal/vec"
)

// Builder собирает дескрипторы и семейства из определений.
// Сборка чистая (без общего состояния) и выполняется вне блокировки реестра.
type Builder struct{}

// BuildBlock собирает один дескриптор для секции, формы и поворота
func (Builder) BuildBlock(section SectionDefinition, shape *Shape, rotation vec.Rotation, uri BlockURI) *Block {
	b := &Block{
		id:         UnknownID,
		uri:        uri,
		props:      section.Properties,
		components: copyComponents(section.Components),
		rotation:   rotation,
		shapeURI:   shape.URI(),
	}
	for _, side := range vec.AllSides {
		shapeSide := rotation.Unrotate(side)
		b.fullSides[side] = shape.IsFullSide(shapeSide)
		b.meshSides[side] = shape.HasMeshPart(shapeSide)
	}
	return b
}

// BuildFamily собирает семейство по определению и форме
func (bl Builder) BuildFamily(def *FamilyDefinition, shape *Shape) (*Family, error) {
	if shape == nil {
		shape = CubeShape()
	}
	familyURI := def.URI.DefinitionURI()
	if def.Freeform {
		familyURI = familyURI.WithShape(shape.URI())
	}

	var blocks []*Block
	switch def.Kind {
	case KindSymmetric, "":
		blocks = append(blocks, bl.BuildBlock(def.Base, shape, vec.NoRotation, familyURI))
	case KindHorizontal:
		for yaw := 0; yaw < 4; yaw++ {
			rot := vec.Rotation{Yaw: yaw}
			blocks = append(blocks, bl.rotated(def, shape, rot, familyURI))
		}
	case KindAllSides:
		for _, rot := range allSidesRotations {
			blocks = append(blocks, bl.rotated(def, shape, rot, familyURI))
		}
	default:
		return nil, fmt.Errorf("%w: %s: неизвестный вид семейства %q", ErrUnloadable, def.URI, def.Kind)
	}

	return newFamily(familyURI, kindOrDefault(def.Kind), blocks, def.Categories), nil
}

// Ориентации all_sides: front, left, back, right, top, bottom
var allSidesRotations = []vec.Rotation{
	{Yaw: 0}, {Yaw: 1}, {Yaw: 2}, {Yaw: 3},
	{Pitch: 1}, {Pitch: 3},
}

func (bl Builder) rotated(def *FamilyDefinition, shape *Shape, rot vec.Rotation, familyURI BlockURI) *Block {
	identifier := rot.Rotate(vec.Front).String()
	return bl.BuildBlock(def.Section(identifier), shape, rot, familyURI.WithIdentifier(identifier))
}

func kindOrDefault(kind FamilyKind) FamilyKind {
	if kind == "" {
		return KindSymmetric
	}
	return kind
}

func copyComponents(c Components) Components {
	if c.SideSupport != nil {
		spec := *c.SideSupport
		c.SideSupport = &spec
	}
	return c
}

// newAirFamily встроенное семейство воздуха с id 0
func newAirFamily() *Family {
	air := Builder{}.BuildBlock(SectionDefinition{
		Properties: Properties{
			DisplayName:        "Air",
			Penetrable:         true,
			Translucent:        true,
			ReplacementAllowed: true,
		},
	}, NewShape("engine:empty", nil, nil), vec.NoRotation, AirURI)
	air.assignID(AirID)
	return newFamily(AirURI, KindSymmetric, []*Block{air}, nil)
}
