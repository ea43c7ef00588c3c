package probe

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
)

const commLen = 16

// counterKey mirrors struct counter_key.
type counterKey struct {
	Comm [commLen]byte
	Pid  uint32
	ID   uint32
}

// counterValue mirrors struct counter_value.
type counterValue struct {
	Counter   uint64
	StartTime uint64
	CumLat    uint64
}

// bpfConfig mirrors struct config.
type bpfConfig struct {
	FilterSyscalls uint32
	Latency        uint32
}

type counterEntry struct {
	key   counterKey
	value counterValue
}

func (k counterKey) comm() string {
	if i := bytes.IndexByte(k.Comm[:], 0); i >= 0 {
		return string(k.Comm[:i])
	}
	return string(k.Comm[:])
}

// counterTable is a BPF hash map of call counters.
type counterTable struct {
	m *ebpf.Map
}

// entries returns what the map holds right now. Entries created while
// iterating may or may not be included.
func (t counterTable) entries() ([]counterEntry, error) {
	var (
		k counterKey
		v counterValue
	)
	out := make([]counterEntry, 0, 256)
	it := t.m.Iterate()
	for it.Next(&k, &v) {
		out = append(out, counterEntry{key: k, value: v})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("iterate map: %w", err)
	}
	return out, nil
}

// delete removes k. An entry that is already gone counts as removed.
func (t counterTable) delete(k counterKey) error {
	if err := t.m.Delete(k); err != nil && !errors.Is(err, ebpf.ErrKeyNotExist) {
		return err
	}
	return nil
}

// clear removes every entry.
func (t counterTable) clear() error {
	entries, err := t.entries()
	if err != nil {
		return err
	}
	var errs error
	for _, e := range entries {
		errs = errors.Join(errs, t.delete(e.key))
	}
	return errs
}
