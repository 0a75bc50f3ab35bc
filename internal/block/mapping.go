package block

// PersistedMapping состояние реестра, сохраняемое между сессиями:
// список зарегистрированных семейств и таблица uri блока → id.
type PersistedMapping struct {
	Families []string           `json:"families"`
	IDs      map[string]BlockID `json:"ids"`
}

// IsEmpty сообщает, есть ли в отображении данные
func (m *PersistedMapping) IsEmpty() bool {
	return m == nil || (len(m.Families) == 0 && len(m.IDs) == 0)
}

// Observer получает уведомления о событиях реестра (метрики, аудит)
type Observer interface {
	FamilyRegistered(family *Family, snapshot *Snapshot)
	IDSpaceExhausted(uri BlockURI)
	PersistedMappingMissing(uri BlockURI)
	FamilyUnavailable(uri BlockURI)
}

type nopObserver struct{}

func (nopObserver) FamilyRegistered(*Family, *Snapshot) {}
func (nopObserver) IDSpaceExhausted(BlockURI)           {}
func (nopObserver) PersistedMappingMissing(BlockURI)    {}
func (nopObserver) FamilyUnavailable(BlockURI)          {}
