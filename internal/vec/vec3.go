package vec

import "fmt"

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Y направлена вверх, как и в системе сторон блока (см. Side).
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Neg возвращает противоположный вектор
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Side возвращает соседнюю позицию со стороны side
func (v Vec3) Side(side Side) Vec3 {
	return v.Add(side.Direction())
}

// ToChunkCoords переводит мировую позицию в координаты чанка со стороной size.
// Для отрицательных координат используется деление с округлением вниз.
func (v Vec3) ToChunkCoords(size int) Vec3 {
	return Vec3{X: floorDiv(v.X, size), Y: floorDiv(v.Y, size), Z: floorDiv(v.Z, size)}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
