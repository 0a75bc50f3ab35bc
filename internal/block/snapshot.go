package block

import (
	"fmt"
	"sort"
)

// Snapshot неизменяемое согласованное представление реестра на момент времени.
// Новый снимок выводится из предыдущего копированием при каждой регистрации,
// старый остаётся валидным для читателей, успевших его получить.
type Snapshot struct {
	families    map[string]*Family
	blocksByURI map[string]*Block
	blocksByID  map[BlockID]*Block
	idByURI     map[string]BlockID
	air         *Block
}

func newSnapshot(air *Family) *Snapshot {
	s := &Snapshot{
		families:    make(map[string]*Family),
		blocksByURI: make(map[string]*Block),
		blocksByID:  make(map[BlockID]*Block),
		idByURI:     make(map[string]BlockID),
		air:         air.Archetype(),
	}
	s.add(air)
	return s
}

// withFamily возвращает новый снимок = текущий ∪ семейство
func (s *Snapshot) withFamily(f *Family) *Snapshot {
	next := &Snapshot{
		families:    make(map[string]*Family, len(s.families)+1),
		blocksByURI: make(map[string]*Block, len(s.blocksByURI)+len(f.blocks)),
		blocksByID:  make(map[BlockID]*Block, len(s.blocksByID)+len(f.blocks)),
		idByURI:     make(map[string]BlockID, len(s.idByURI)+len(f.blocks)),
		air:         s.air,
	}
	for k, v := range s.families {
		next.families[k] = v
	}
	for k, v := range s.blocksByURI {
		next.blocksByURI[k] = v
	}
	for k, v := range s.blocksByID {
		next.blocksByID[k] = v
	}
	for k, v := range s.idByURI {
		next.idByURI[k] = v
	}
	next.add(f)
	return next
}

func (s *Snapshot) add(f *Family) {
	s.families[f.uri.String()] = f
	for _, b := range f.blocks {
		key := b.uri.String()
		s.blocksByURI[key] = b
		if b.HasID() {
			s.blocksByID[b.id] = b
			s.idByURI[key] = b.id
		}
	}
}

// Air возвращает дескриптор воздуха
func (s *Snapshot) Air() *Block { return s.air }

// Block ищет блок по точному URI (без нормализации)
func (s *Snapshot) Block(uri BlockURI) (*Block, bool) {
	b, ok := s.blocksByURI[uri.String()]
	return b, ok
}

// BlockByID возвращает блок по id или воздух, если id не зарегистрирован
func (s *Snapshot) BlockByID(id BlockID) *Block {
	if b, ok := s.blocksByID[id]; ok {
		return b
	}
	return s.air
}

// Family ищет семейство по точному URI
func (s *Snapshot) Family(uri BlockURI) (*Family, bool) {
	f, ok := s.families[uri.String()]
	return f, ok
}

// ID возвращает id блока по URI
func (s *Snapshot) ID(uri BlockURI) (BlockID, bool) {
	id, ok := s.idByURI[uri.String()]
	return id, ok
}

// Families возвращает семейства, отсортированные по URI
func (s *Snapshot) Families() []*Family {
	out := make([]*Family, 0, len(s.families))
	for _, f := range s.families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].uri.String() < out[j].uri.String() })
	return out
}

// FamilyCount количество семейств, включая воздух
func (s *Snapshot) FamilyCount() int { return len(s.families) }

// BlockCount количество дескрипторов, включая воздух
func (s *Snapshot) BlockCount() int { return len(s.blocksByURI) }

// Validate проверяет инварианты снимка
func (s *Snapshot) Validate() error {
	for id, b := range s.blocksByID {
		if b.ID() != id {
			return fmt.Errorf("id %d указывает на блок %s с id %d", id, b.uri, b.ID())
		}
		if other, ok := s.blocksByURI[b.uri.String()]; !ok || other != b {
			return fmt.Errorf("блок %s с id %d отсутствует в таблице uri", b.uri, id)
		}
	}
	for key, b := range s.blocksByURI {
		if b.family == nil {
			return fmt.Errorf("блок %s без семейства", key)
		}
		if f, ok := s.families[b.family.uri.String()]; !ok || f != b.family {
			return fmt.Errorf("семейство блока %s отсутствует в снимке", key)
		}
		if b.HasID() && s.idByURI[key] != b.ID() {
			return fmt.Errorf("таблица uri→id расходится для %s", key)
		}
	}
	return nil
}
