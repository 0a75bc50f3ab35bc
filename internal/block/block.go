package block

import (
	"fmt"

	"github.com/annel0/block-engine/internal/vec"
)

// Block дескриптор конкретного варианта блока. После сборки неизменяем,
// кроме числового id: он назначается реестром ровно один раз до публикации в снимок.
type Block struct {
	id         BlockID
	idAssigned bool
	uri        BlockURI
	family     *Family

	props      Properties
	components Components
	rotation   vec.Rotation
	shapeURI   string

	fullSides [vec.SideCount]bool
	meshSides [vec.SideCount]bool
}

// ID возвращает числовой id; UnknownID, если id не назначен
func (b *Block) ID() BlockID {
	if !b.idAssigned {
		return UnknownID
	}
	return b.id
}

// HasID сообщает, назначен ли блоку реальный id
func (b *Block) HasID() bool {
	return b.idAssigned && b.id != UnknownID
}

// assignID назначает id. Повторное назначение игнорируется и возвращает false.
func (b *Block) assignID(id BlockID) bool {
	if b.idAssigned {
		return false
	}
	b.id = id
	b.idAssigned = true
	return true
}

func (b *Block) URI() BlockURI          { return b.uri }
func (b *Block) Family() *Family        { return b.family }
func (b *Block) Properties() Properties { return b.props }
func (b *Block) Components() Components { return b.components }
func (b *Block) Rotation() vec.Rotation { return b.rotation }
func (b *Block) ShapeURI() string       { return b.shapeURI }

// DisplayName возвращает отображаемое имя или URI, если имя не задано
func (b *Block) DisplayName() string {
	if b.props.DisplayName != "" {
		return b.props.DisplayName
	}
	return b.uri.String()
}

// IsAir сообщает, является ли блок воздухом
func (b *Block) IsAir() bool {
	return b.family != nil && b.family.uri == AirURI
}

// IsSupportRequired блок требует опоры снизу (свойство дескриптора)
func (b *Block) IsSupportRequired() bool {
	return b.props.SupportRequired
}

// IsFullSide сообщает, закрыта ли сторона блока целиком (с учётом поворота)
func (b *Block) IsFullSide(side vec.Side) bool {
	return b.fullSides[side]
}

// HasMeshPart сообщает, есть ли у внешнего вида блока часть сетки на стороне
func (b *Block) HasMeshPart(side vec.Side) bool {
	return b.meshSides[side]
}

// CanAttachTo сообщает, можно ли прикрепиться к этому блоку со стороны side
func (b *Block) CanAttachTo(side vec.Side) bool {
	return b.props.AttachmentAllowed && b.fullSides[side]
}

func (b *Block) String() string {
	return fmt.Sprintf("%s#%d", b.uri, b.ID())
}
