package vec

// Rotation описывает поворот блока четвертями оборота:
// сначала Pitch вокруг оси X, затем Yaw вокруг оси Y.
// Поворот Yaw на +1 переводит Front в Left, Pitch на +1 переводит Front в Top.
type Rotation struct {
	Yaw   int
	Pitch int
}

// NoRotation тождественный поворот
var NoRotation = Rotation{}

// Rotate возвращает сторону, в которую переходит s после поворота
func (r Rotation) Rotate(s Side) Side {
	d := s.Direction()
	for i := 0; i < mod4(r.Pitch); i++ {
		d = Vec3{X: d.X, Y: -d.Z, Z: d.Y}
	}
	for i := 0; i < mod4(r.Yaw); i++ {
		d = Vec3{X: d.Z, Y: d.Y, Z: -d.X}
	}
	side, _ := SideFromDirection(d)
	return side
}

// Unrotate обратное преобразование: какая сторона формы оказалась на стороне s
func (r Rotation) Unrotate(s Side) Side {
	for _, candidate := range AllSides {
		if r.Rotate(candidate) == s {
			return candidate
		}
	}
	return s
}

// IsIdentity сообщает, является ли поворот тождественным
func (r Rotation) IsIdentity() bool {
	return mod4(r.Yaw) == 0 && mod4(r.Pitch) == 0
}

func mod4(v int) int {
	return ((v % 4) + 4) % 4
}
