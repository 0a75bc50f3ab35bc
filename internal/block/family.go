package block

import "github.com/annel0/block-engine/internal/vec"

// Family именованная группа связанных блоков (повороты, стадии).
// Регистрируется в реестре один раз и после этого не меняется.
type Family struct {
	uri          BlockURI
	kind         FamilyKind
	blocks       []*Block
	byIdentifier map[string]*Block
	categories   []string
}

func newFamily(uri BlockURI, kind FamilyKind, blocks []*Block, categories []string) *Family {
	f := &Family{
		uri:          uri,
		kind:         kind,
		blocks:       blocks,
		byIdentifier: make(map[string]*Block, len(blocks)),
		categories:   append([]string(nil), categories...),
	}
	for _, b := range blocks {
		b.family = f
		f.byIdentifier[b.uri.Identifier] = b
	}
	return f
}

func (f *Family) URI() BlockURI    { return f.uri }
func (f *Family) Kind() FamilyKind { return f.kind }

// Blocks возвращает блоки семейства в порядке сборки
func (f *Family) Blocks() []*Block {
	return append([]*Block(nil), f.blocks...)
}

// Archetype блок, представляющий семейство (первый собранный)
func (f *Family) Archetype() *Block {
	return f.blocks[0]
}

// Block возвращает блок по идентификатору внутри семейства
func (f *Family) Block(identifier string) (*Block, bool) {
	b, ok := f.byIdentifier[identifier]
	return b, ok
}

// BlockFacing возвращает блок, повёрнутый лицевой стороной к side.
// Для симметричного семейства это всегда архетип.
func (f *Family) BlockFacing(side vec.Side) *Block {
	if b, ok := f.byIdentifier[side.String()]; ok {
		return b
	}
	return f.Archetype()
}

func (f *Family) Categories() []string {
	return append([]string(nil), f.categories...)
}

// HasCategory проверяет принадлежность к категории
func (f *Family) HasCategory(category string) bool {
	for _, c := range f.categories {
		if c == category {
			return true
		}
	}
	return false
}
