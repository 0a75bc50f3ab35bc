package block

// BlockID числовой идентификатор блока во время выполнения.
// Таблица uri→id сохраняется между сессиями и синхронизируется по сети,
// поэтому выданный id никогда не переиспользуется.
type BlockID uint16

const (
	// AirID зарезервирован за воздухом (пустой позицией)
	AirID BlockID = 0
	// MinID первый id, выдаваемый обычным блокам
	MinID BlockID = 1
	// MaxID последний выдаваемый id: всего 65534 значения
	MaxID BlockID = 0xFFFE
	// UnknownID означает "id не назначен" (в том числе при исчерпании пространства)
	UnknownID BlockID = 0xFFFF
)

// IsAssigned сообщает, является ли id реальным (не сентинелом)
func (id BlockID) IsAssigned() bool {
	return id != UnknownID
}
