package vec

import (
	"fmt"
	"strings"
)

// Side определяет одну из шести осевых сторон блока
type Side uint8

const (
	Top    Side = iota // +Y
	Bottom             // -Y
	Left               // -X
	Right              // +X
	Front              // -Z
	Back               // +Z
)

// SideCount количество сторон блока
const SideCount = 6

// AllSides перечисляет стороны в каноническом порядке
var AllSides = [SideCount]Side{Top, Bottom, Left, Right, Front, Back}

// HorizontalSides стороны, перпендикулярные вертикальной оси
var HorizontalSides = [4]Side{Left, Right, Front, Back}

var sideDirections = [SideCount]Vec3{
	Top:    {X: 0, Y: 1, Z: 0},
	Bottom: {X: 0, Y: -1, Z: 0},
	Left:   {X: -1, Y: 0, Z: 0},
	Right:  {X: 1, Y: 0, Z: 0},
	Front:  {X: 0, Y: 0, Z: -1},
	Back:   {X: 0, Y: 0, Z: 1},
}

var sideNames = [SideCount]string{"top", "bottom", "left", "right", "front", "back"}

// Direction возвращает единичный вектор стороны
func (s Side) Direction() Vec3 {
	return sideDirections[s]
}

// Reverse возвращает противоположную сторону
func (s Side) Reverse() Side {
	switch s {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	case Right:
		return Left
	case Front:
		return Back
	default:
		return Front
	}
}

// IsHorizontal сообщает, лежит ли сторона в горизонтальной плоскости
func (s Side) IsHorizontal() bool {
	return s != Top && s != Bottom
}

func (s Side) String() string {
	if int(s) < SideCount {
		return sideNames[s]
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// ParseSide разбирает имя стороны без учёта регистра
func ParseSide(name string) (Side, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range sideNames {
		if n == name {
			return Side(i), nil
		}
	}
	return 0, fmt.Errorf("неизвестная сторона %q", name)
}

// SideFromDirection возвращает сторону для единичного осевого вектора
func SideFromDirection(dir Vec3) (Side, bool) {
	for i, d := range sideDirections {
		if d == dir {
			return Side(i), true
		}
	}
	return 0, false
}
