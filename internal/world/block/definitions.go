package block

// Регистрируем базовые типы блоков при импорте пакета
func init() {
	Register(Definition{ID: Empty, Name: "Empty"})
	Register(Definition{ID: Grass, Name: "Grass", Color: 0x559020})
	Register(Definition{ID: Dirt, Name: "Dirt", Color: 0x807020})
	Register(Definition{ID: Stone, Name: "Stone", Color: 0x808080})
	Register(Definition{ID: CoalOre, Name: "CoalOre", Color: 0x202020})
	Register(Definition{ID: IronOre, Name: "IronOre", Color: 0x806060})
}
