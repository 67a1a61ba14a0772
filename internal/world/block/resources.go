package block

import "github.com/annel0/voxel-world/internal/vec"

// Resource описывает подземный ресурс, распределённый объёмным шумом.
// Клетка ниже поверхности становится ресурсом, если шум в ней больше Scarcity.
type Resource struct {
	Block    BlockID       `json:"block" yaml:"block"`
	Scarcity float64       `json:"scarcity" yaml:"scarcity"`
	Scale    vec.Vec3Float `json:"scale" yaml:"scale"`
}

// DefaultResources возвращает стандартный набор ресурсов: камень, уголь, железо
func DefaultResources() []Resource {
	return []Resource{
		{Block: Stone, Scarcity: 0.5, Scale: vec.Vec3Float{X: 30, Y: 30, Z: 30}},
		{Block: CoalOre, Scarcity: 0.8, Scale: vec.Vec3Float{X: 20, Y: 20, Z: 20}},
		{Block: IronOre, Scarcity: 0.9, Scale: vec.Vec3Float{X: 40, Y: 40, Z: 40}},
	}
}
