package world

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// NoSlot - у блока нет инстанса отрисовки
const NoSlot = -1

// Block - содержимое одной клетки
type Block struct {
	ID   block.BlockID `json:"id"`
	Slot int           `json:"slot"`
}

// HasInstance сообщает, занимает ли блок слот отрисовки
func (b Block) HasInstance() bool {
	return b.Slot != NoSlot
}

// BlockQuery - доступ к блокам в мировых координатах.
// false означает "клетка неизвестна" (чанк не загружен или вне высоты мира).
type BlockQuery interface {
	GetBlock(x, y, z int) (Block, bool)
}

// Chunk - колонка мира размером Width x Height x Width.
// Хранит блоки плоским массивом и пачки инстансов по типам блоков.
type Chunk struct {
	coords    ChunkCoord
	size      Size
	blocks    []Block
	batches   map[block.BlockID]*instanceBatch
	world     BlockQuery
	renderer  InstanceRenderer
	overrides *OverrideStore
	generated bool
}

// NewChunk создаёт пустой чанк. world используется для соседей за границей
// чанка и может быть nil, тогда граничные клетки всегда считаются открытыми.
func NewChunk(coords ChunkCoord, size Size, world BlockQuery, renderer InstanceRenderer, overrides *OverrideStore) *Chunk {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	if overrides == nil {
		overrides = NewOverrideStore()
	}
	c := &Chunk{
		coords:    coords,
		size:      size,
		blocks:    make([]Block, size.Volume()),
		batches:   make(map[block.BlockID]*instanceBatch),
		world:     world,
		renderer:  renderer,
		overrides: overrides,
	}
	c.clear()
	return c
}

// Coords возвращает координаты чанка
func (c *Chunk) Coords() ChunkCoord {
	return c.coords
}

// Size возвращает размеры чанка
func (c *Chunk) Size() Size {
	return c.size
}

// Generated сообщает, был ли чанк сгенерирован
func (c *Chunk) Generated() bool {
	return c.generated
}

func (c *Chunk) index(x, y, z int) int {
	return ((x*c.size.Height)+y)*c.size.Width + z
}

func (c *Chunk) local(idx int) vec.Vec3 {
	z := idx % c.size.Width
	y := (idx / c.size.Width) % c.size.Height
	x := idx / (c.size.Width * c.size.Height)
	return vec.Vec3{X: x, Y: y, Z: z}
}

func (c *Chunk) worldPos(idx int) vec.Vec3 {
	p := c.local(idx)
	p.X += c.coords.X * c.size.Width
	p.Z += c.coords.Z * c.size.Width
	return p
}

// InBounds проверяет локальные координаты
func (c *Chunk) InBounds(x, y, z int) bool {
	return x >= 0 && x < c.size.Width &&
		y >= 0 && y < c.size.Height &&
		z >= 0 && z < c.size.Width
}

func (c *Chunk) clear() {
	for i := range c.blocks {
		c.blocks[i] = Block{ID: block.Empty, Slot: NoSlot}
	}
}

// Generate заполняет чанк процедурным рельефом, накладывает правки
// и выдаёт слоты всем видимым блокам.
func (c *Chunk) Generate(gen *Generator) {
	c.DisposeInstances()
	c.clear()

	baseX := c.coords.X * c.size.Width
	baseZ := c.coords.Z * c.size.Width
	for x := 0; x < c.size.Width; x++ {
		for z := 0; z < c.size.Width; z++ {
			wx, wz := baseX+x, baseZ+z
			height := gen.ColumnHeight(wx, wz)
			for y := 0; y <= height && y < c.size.Height; y++ {
				c.blocks[c.index(x, y, z)].ID = gen.BlockAt(wx, y, wz, height)
			}
		}
	}

	c.overrides.ForChunk(c.coords, func(pos vec.Vec3, id block.BlockID) {
		if c.InBounds(pos.X, pos.Y, pos.Z) {
			c.blocks[c.index(pos.X, pos.Y, pos.Z)].ID = id
		}
	})

	for idx := range c.blocks {
		if c.blocks[idx].ID == block.Empty {
			continue
		}
		p := c.local(idx)
		if !c.IsBlockObscured(p.X, p.Y, p.Z) {
			c.addInstance(idx)
		}
	}
	c.generated = true
}

// GetBlock возвращает блок по локальным координатам
func (c *Chunk) GetBlock(x, y, z int) (Block, bool) {
	if !c.InBounds(x, y, z) {
		return Block{ID: block.Empty, Slot: NoSlot}, false
	}
	return c.blocks[c.index(x, y, z)], true
}

// AddBlock ставит блок и записывает правку. Соседей не трогает:
// их видимость обновляет World.
func (c *Chunk) AddBlock(x, y, z int, id block.BlockID) bool {
	if !c.InBounds(x, y, z) || id == block.Empty || !block.IsValidBlockID(id) {
		return false
	}
	idx := c.index(x, y, z)
	if c.blocks[idx].ID == id {
		return false
	}

	// слот принадлежит пачке старого типа, освобождаем до смены ID
	c.deleteInstance(idx)
	c.blocks[idx].ID = id
	c.overrides.Set(c.coords, vec.Vec3{X: x, Y: y, Z: z}, id)

	if !c.IsBlockObscured(x, y, z) {
		c.addInstance(idx)
	}
	return true
}

// RemoveBlock делает клетку пустой и записывает правку
func (c *Chunk) RemoveBlock(x, y, z int) bool {
	if !c.InBounds(x, y, z) {
		return false
	}
	idx := c.index(x, y, z)
	if c.blocks[idx].ID == block.Empty {
		return false
	}

	c.deleteInstance(idx)
	c.blocks[idx].ID = block.Empty
	c.overrides.Set(c.coords, vec.Vec3{X: x, Y: y, Z: z}, block.Empty)
	return true
}

// IsBlockObscured - все шесть соседей заняты.
// Неизвестный сосед (чанк не загружен, клетка вне высоты) считается пустым.
func (c *Chunk) IsBlockObscured(x, y, z int) bool {
	for _, d := range vec.Neighbors6 {
		nx, ny, nz := x+d.X, y+d.Y, z+d.Z
		if ny < 0 || ny >= c.size.Height {
			return false
		}
		if c.InBounds(nx, ny, nz) {
			if c.blocks[c.index(nx, ny, nz)].ID == block.Empty {
				return false
			}
			continue
		}
		if c.world == nil {
			return false
		}
		b, ok := c.world.GetBlock(c.coords.X*c.size.Width+nx, ny, c.coords.Z*c.size.Width+nz)
		if !ok || b.ID == block.Empty {
			return false
		}
	}
	return true
}

// AddBlockInstance выдаёт слот блоку, не меняя его ID
func (c *Chunk) AddBlockInstance(x, y, z int) {
	if c.InBounds(x, y, z) {
		c.addInstance(c.index(x, y, z))
	}
}

// DeleteBlockInstance освобождает слот блока, не меняя его ID
func (c *Chunk) DeleteBlockInstance(x, y, z int) {
	if c.InBounds(x, y, z) {
		c.deleteInstance(c.index(x, y, z))
	}
}

// RefreshBlock приводит слот клетки в соответствие с её видимостью:
// открывшийся блок получает слот, закрытый или пустой теряет.
func (c *Chunk) RefreshBlock(x, y, z int) {
	if !c.InBounds(x, y, z) {
		return
	}
	idx := c.index(x, y, z)
	b := c.blocks[idx]
	visible := b.ID != block.Empty && !c.IsBlockObscured(x, y, z)
	switch {
	case visible && b.Slot == NoSlot:
		c.addInstance(idx)
	case !visible && b.Slot != NoSlot:
		c.deleteInstance(idx)
	}
}

// RefreshBorder обновляет клетки грани, обращённой к соседу (dx, dz)
func (c *Chunk) RefreshBorder(dx, dz int) {
	w := c.size.Width
	for i := 0; i < w; i++ {
		for y := 0; y < c.size.Height; y++ {
			switch {
			case dx > 0:
				c.RefreshBlock(w-1, y, i)
			case dx < 0:
				c.RefreshBlock(0, y, i)
			case dz > 0:
				c.RefreshBlock(i, y, w-1)
			case dz < 0:
				c.RefreshBlock(i, y, 0)
			}
		}
	}
}

// DisposeInstances освобождает все слоты чанка
func (c *Chunk) DisposeInstances() {
	for id, batch := range c.batches {
		for _, owner := range batch.owners {
			c.blocks[owner].Slot = NoSlot
		}
		c.renderer.Release(BatchKey{Chunk: c.coords, Block: id})
	}
	c.batches = make(map[block.BlockID]*instanceBatch)
}

// InstanceCount возвращает число занятых слотов
func (c *Chunk) InstanceCount() int {
	total := 0
	for _, batch := range c.batches {
		total += len(batch.owners)
	}
	return total
}

// ForEachBlock обходит все непустые блоки в порядке хранения
func (c *Chunk) ForEachBlock(fn func(pos vec.Vec3, b Block)) {
	for idx, b := range c.blocks {
		if b.ID != block.Empty {
			fn(c.local(idx), b)
		}
	}
}

func (c *Chunk) addInstance(idx int) {
	b := &c.blocks[idx]
	if b.ID == block.Empty || b.Slot != NoSlot {
		return
	}
	batch, ok := c.batches[b.ID]
	if !ok {
		batch = &instanceBatch{}
		c.batches[b.ID] = batch
	}
	slot := len(batch.owners)
	batch.owners = append(batch.owners, idx)
	b.Slot = slot
	c.renderer.Allocate(BatchKey{Chunk: c.coords, Block: b.ID}, slot, c.worldPos(idx))
}

// deleteInstance освобождает слот: последний инстанс пачки переезжает
// на место освобождённого, пачка укорачивается на один.
func (c *Chunk) deleteInstance(idx int) {
	b := &c.blocks[idx]
	if b.Slot == NoSlot {
		return
	}
	batch, ok := c.batches[b.ID]
	if !ok {
		b.Slot = NoSlot
		return
	}
	key := BatchKey{Chunk: c.coords, Block: b.ID}
	slot := b.Slot
	last := len(batch.owners) - 1
	if slot != last {
		moved := batch.owners[last]
		batch.owners[slot] = moved
		c.blocks[moved].Slot = slot
		c.renderer.Update(key, slot, c.worldPos(moved))
	}
	batch.owners = batch.owners[:last]
	b.Slot = NoSlot
	c.renderer.Free(key, last)

	if len(batch.owners) == 0 {
		delete(c.batches, b.ID)
		c.renderer.Release(key)
	}
}
