package keeper

type entry struct {
	key   PK
	value []byte
}

func newEntry(key string, value []byte) *entry {
	return &entry{key: newPK(key), value: value}
}

func (ent *entry) clone() *entry {
	v := make([]byte, len(ent.value))
	copy(v, ent.value)
	return &entry{key: ent.key, value: v}
}
