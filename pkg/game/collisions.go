package game

import (
	"github.com/cbodonnell/orderstone/pkg/game/constants"
	"github.com/cbodonnell/orderstone/pkg/game/types"
	"github.com/cbodonnell/orderstone/pkg/world"
	"github.com/solarlune/resolv"
)

// NewCollisionSpace covers the whole world with one cell per block.
func NewCollisionSpace() *resolv.Space {
	width := int(float64(world.MaxX-world.MinX) * constants.BlockSize)
	height := int(float64(world.MaxY-world.MinY) * constants.BlockSize)
	return resolv.NewSpace(width, height, int(constants.BlockSize), int(constants.BlockSize))
}

// toSpace converts world block coordinates to collision-space pixels.
func toSpace(x, y float64) (float64, float64) {
	return (x - world.MinX) * constants.BlockSize, (y - world.MinY) * constants.BlockSize
}

func newPlayerObject(x, y float64) *resolv.Object {
	px, py := toSpace(x, y)
	return resolv.NewObject(px, py, constants.PlayerWidth*constants.BlockSize, constants.PlayerHeight*constants.BlockSize, types.CollisionSpaceTagPlayer)
}

// syncPlayerObject moves the player's collision object to its current position.
func syncPlayerObject(p *types.PlayerState) {
	if p.Object == nil {
		return
	}
	p.Object.Position.X, p.Object.Position.Y = toSpace(p.X, p.Y)
	p.Object.Update()
}

// newBlockObject is inset by one pixel so that it does not touch the
// neighbouring cells.
func newBlockObject(pos world.Pos) *resolv.Object {
	px, py := toSpace(float64(pos.X), float64(pos.Y))
	return resolv.NewObject(px+1, py+1, constants.BlockSize-2, constants.BlockSize-2, types.CollisionSpaceTagBlock)
}

func overlaps(a, b *resolv.Object) bool {
	return a.Position.X < b.Position.X+b.Size.X &&
		b.Position.X < a.Position.X+a.Size.X &&
		a.Position.Y < b.Position.Y+b.Size.Y &&
		b.Position.Y < a.Position.Y+a.Size.Y
}

// blockedByPlayer reports whether a block at pos would overlap a player.
func blockedByPlayer(space *resolv.Space, pos world.Pos) bool {
	if space == nil {
		return false
	}
	block := newBlockObject(pos)
	space.Add(block)
	defer space.Remove(block)

	collision := block.Check(0, 0, types.CollisionSpaceTagPlayer)
	if collision == nil {
		return false
	}
	for _, o := range collision.Objects {
		if overlaps(block, o) {
			return true
		}
	}
	return false
}

// attackHitbox is the area in front of the attacker hit by a melee attack.
func attackHitbox(attacker *types.PlayerState) *resolv.Object {
	reach := constants.PlayerAttackReach * constants.BlockSize
	x := attacker.Object.Position.X
	if attacker.Facing < 0 {
		x -= reach
	}
	return resolv.NewObject(x, attacker.Object.Position.Y, attacker.Object.Size.X+reach, attacker.Object.Size.Y, types.CollisionSpaceTagHitbox)
}
