package block

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	Empty   BlockID = iota // 0 - пустая клетка
	Grass                  // 1
	Dirt                   // 2
	Stone                  // 3
	CoalOre                // 4
	IronOre                // 5
)

// Definition описывает тип блока
type Definition struct {
	ID    BlockID `json:"id"`
	Name  string  `json:"name"`
	Color uint32  `json:"color"` // RGB для отладочных рендереров
}

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]Definition)
)

// Register добавляет описание блока в регистр
func Register(def Definition) {
	registryMu.Lock()
	registry[def.ID] = def
	registryMu.Unlock()
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Definition, bool) {
	registryMu.RLock()
	def, exists := registry[id]
	registryMu.RUnlock()
	return def, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// ByName ищет блок по имени без учёта регистра
func ByName(name string) (BlockID, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for id, def := range registry {
		if strings.EqualFold(def.Name, name) {
			return id, true
		}
	}
	return Empty, false
}

// All возвращает все зарегистрированные блоки, отсортированные по ID
func All() []Definition {
	registryMu.RLock()
	defs := make([]Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	registryMu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// String возвращает имя блока или числовой ID для незарегистрированных
func (id BlockID) String() string {
	if def, ok := Get(id); ok {
		return def.Name
	}
	return fmt.Sprintf("block#%d", uint16(id))
}
