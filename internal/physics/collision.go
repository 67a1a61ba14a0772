package physics

import (
	"math"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// BoxCollider представляет вертикальный цилиндр игрока, аппроксимированный AABB:
// Radius по X/Z от центра, Height вверх от ступней.
type BoxCollider struct {
	Radius float64
	Height float64
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(radius, height float64) BoxCollider {
	return BoxCollider{Radius: radius, Height: height}
}

// Bounds возвращает минимальный и максимальный угол коллайдера в позиции pos (ступни)
func (bc BoxCollider) Bounds(pos vec.Vec3Float) (min, max vec.Vec3Float) {
	min = vec.Vec3Float{X: pos.X - bc.Radius, Y: pos.Y, Z: pos.Z - bc.Radius}
	max = vec.Vec3Float{X: pos.X + bc.Radius, Y: pos.Y + bc.Height, Z: pos.Z + bc.Radius}
	return min, max
}

// CandidateBlocks возвращает все твёрдые клетки, пересекающие коллайдер (broad phase).
// Клетки незагруженных чанков пропускаются: для физики это "нет коллайдера".
func CandidateBlocks(q world.BlockQuery, pos vec.Vec3Float, bc BoxCollider) []vec.Vec3 {
	min, max := bc.Bounds(pos)
	var out []vec.Vec3
	for x := int(math.Floor(min.X)); x <= int(math.Floor(max.X)); x++ {
		for y := int(math.Floor(min.Y)); y <= int(math.Floor(max.Y)); y++ {
			for z := int(math.Floor(min.Z)); z <= int(math.Floor(max.Z)); z++ {
				b, ok := q.GetBlock(x, y, z)
				if !ok || b.ID == block.Empty {
					continue
				}
				if overlaps(min, max, x, y, z) {
					out = append(out, vec.Vec3{X: x, Y: y, Z: z})
				}
			}
		}
	}
	return out
}

// Collides проверяет пересечение коллайдера с твёрдыми блоками
func Collides(q world.BlockQuery, pos vec.Vec3Float, bc BoxCollider) bool {
	return len(CandidateBlocks(q, pos, bc)) > 0
}

// GroundHeight возвращает Y верхней грани самого высокого твёрдого блока колонки
// не выше fromY. false - колонка не загружена или под точкой пусто.
func GroundHeight(q world.BlockQuery, x, z, fromY int) (int, bool) {
	for y := fromY; y >= 0; y-- {
		b, ok := q.GetBlock(x, y, z)
		if !ok {
			if y == fromY {
				continue // выше мира
			}
			return 0, false
		}
		if b.ID != block.Empty {
			return y + 1, true
		}
	}
	return 0, false
}

// CanMoveToPosition проверяет, может ли коллайдер занять позицию
func CanMoveToPosition(q world.BlockQuery, newPos vec.Vec3Float, bc BoxCollider) bool {
	return newPos.IsFinite() && !Collides(q, newPos, bc)
}

// overlaps - строгое пересечение AABB коллайдера и единичного куба клетки
func overlaps(min, max vec.Vec3Float, x, y, z int) bool {
	fx, fy, fz := float64(x), float64(y), float64(z)
	return max.X > fx && min.X < fx+1 &&
		max.Y > fy && min.Y < fy+1 &&
		max.Z > fz && min.Z < fz+1
}
