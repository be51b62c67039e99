// Package gamemap loads declarative map descriptions and turns them into
// static collision geometry and spawn metadata for a room's physics world.
package gamemap

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/wfunc/roomworld/physics"
)

const (
	// AreaTypeHole marks an area with no ground under it.
	AreaTypeHole = "hole"
	// AreaTypeSpawn marks an area players spawn in.
	AreaTypeSpawn = "spawn"

	groundThickness = 1.0
)

// Collider is one static collider placement produced by the loader.
type Collider struct {
	Name     string
	Shape    physics.Shape
	Position physics.Vec3
	Rotation physics.Vec3
}

// Area is a named region of the map. Size is the side length of its square
// footprint, Position its center.
type Area struct {
	Name     string
	Type     string
	Size     float64
	Position physics.Vec3
}

// RandomPoint samples a uniformly random point inside the area's footprint,
// at the area's own height.
func (a Area) RandomPoint() physics.Vec3 {
	return physics.Vec3{
		X: a.Position.X + (rand.Float64()-0.5)*a.Size,
		Y: a.Position.Y,
		Z: a.Position.Z + (rand.Float64()-0.5)*a.Size,
	}
}

// Map is a fully loaded map: immutable after Load.
type Map struct {
	Name       string
	Colliders  []Collider
	SpawnAreas []Area
}

type mapFile struct {
	DefaultSize  float64     `json:"default_size"`
	DefaultType  string      `json:"default_type"`
	DefaultColor string      `json:"default_color"`
	Length       float64     `json:"length"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	Areas        []areaDef   `json:"areas"`
	Objects      []objectDef `json:"objects"`
}

type areaDef struct {
	Name  string     `json:"name"`
	Size  float64    `json:"size"`
	Pos   [3]float64 `json:"pos"`
	Type  string     `json:"type"`
	Color string     `json:"color"`
}

type objectDef struct {
	Name     string       `json:"name"`
	Pos      [3]float64   `json:"pos"`
	Rot      [3]float64   `json:"rot"`
	Collider *colliderDef `json:"collider"`
}

type colliderDef struct {
	Type         string      `json:"type"`
	Dim          [3]float64  `json:"dim"`
	Radius       float64     `json:"radius"`
	RadiusTop    float64     `json:"radius_top"`
	RadiusBottom float64     `json:"radius_bottom"`
	Height       float64     `json:"height"`
	Segments     int         `json:"segments"`
	Pos          *[3]float64 `json:"pos"`
	Rot          *[3]float64 `json:"rot"`
}

// Load reads and parses <dir>/<name>.json. Any failure makes the map — and
// therefore the room that needs it — unusable, so errors are returned rather
// than papered over with an empty world.
func Load(dir, name string) (*Map, error) {
	path := filepath.Join(dir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %q: %w", name, err)
	}

	var mf mapFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse map %q: %w", name, err)
	}

	m := &Map{Name: name}
	m.fillGround(&mf)
	if err := m.addAreas(&mf); err != nil {
		return nil, fmt.Errorf("map %q: %w", name, err)
	}
	if err := m.addObjects(&mf); err != nil {
		return nil, fmt.Errorf("map %q: %w", name, err)
	}
	return m, nil
}

// fillGround emits one ground collider per background grid cell. Cells whose
// exact position is claimed by a declared area are skipped; the area decides
// what (if anything) stands there instead.
func (m *Map) fillGround(mf *mapFile) {
	size := mf.DefaultSize
	if size <= 0 {
		return
	}
	maxX := mf.Length / 2
	maxZ := mf.Width / 2

	for x := -maxX; x < maxX; x += size {
		for z := -maxZ; z < maxZ; z += size {
			if occupied(mf.Areas, x, z) {
				continue
			}
			m.Colliders = append(m.Colliders, Collider{
				Name:     fmt.Sprintf("tile_%g_%g", x, z),
				Shape:    physics.Box{HalfX: size / 2, HalfY: groundThickness / 2, HalfZ: size / 2},
				Position: physics.Vec3{X: x, Y: mf.Height - groundThickness/2, Z: z},
			})
		}
	}
}

func occupied(areas []areaDef, x, z float64) bool {
	for _, a := range areas {
		if a.Pos[0] == x && a.Pos[2] == z {
			return true
		}
	}
	return false
}

func (m *Map) addAreas(mf *mapFile) error {
	for _, a := range mf.Areas {
		if a.Size <= 0 {
			return fmt.Errorf("area %q has no size", a.Name)
		}
		pos := physics.Vec3{X: a.Pos[0], Y: mf.Height + a.Pos[1], Z: a.Pos[2]}

		if a.Type == AreaTypeSpawn {
			m.SpawnAreas = append(m.SpawnAreas, Area{
				Name:     a.Name,
				Type:     a.Type,
				Size:     a.Size,
				Position: pos,
			})
		}
		if a.Type == AreaTypeHole {
			continue
		}
		m.Colliders = append(m.Colliders, Collider{
			Name:     "area_" + a.Name,
			Shape:    physics.Box{HalfX: a.Size / 2, HalfY: groundThickness / 2, HalfZ: a.Size / 2},
			Position: physics.Vec3{X: pos.X, Y: pos.Y - groundThickness/2, Z: pos.Z},
		})
	}
	return nil
}

func (m *Map) addObjects(mf *mapFile) error {
	for _, o := range mf.Objects {
		if o.Collider == nil {
			continue
		}
		c := o.Collider

		pos := physics.Vec3{X: o.Pos[0], Y: o.Pos[1], Z: o.Pos[2]}
		rot := physics.Vec3{X: o.Rot[0], Y: o.Rot[1], Z: o.Rot[2]}
		if c.Pos != nil {
			pos = pos.Add(physics.Vec3{X: c.Pos[0], Y: c.Pos[1], Z: c.Pos[2]})
		}
		if c.Rot != nil {
			rot = rot.Add(physics.Vec3{X: c.Rot[0], Y: c.Rot[1], Z: c.Rot[2]})
		}

		shape, err := colliderShape(c)
		if err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		m.Colliders = append(m.Colliders, Collider{
			Name:     "obj_" + o.Name,
			Shape:    shape,
			Position: pos,
			Rotation: rot,
		})
	}
	return nil
}

func colliderShape(c *colliderDef) (physics.Shape, error) {
	switch c.Type {
	case "box":
		return physics.Box{HalfX: c.Dim[0], HalfY: c.Dim[1], HalfZ: c.Dim[2]}, nil
	case "cylinder":
		top, bottom := c.RadiusTop, c.RadiusBottom
		if top == 0 && bottom == 0 {
			top, bottom = c.Radius, c.Radius
		}
		// A single declared radius stands in for the other.
		if top == 0 {
			top = bottom
		}
		if bottom == 0 {
			bottom = top
		}
		segments := c.Segments
		if segments == 0 {
			segments = 16
		}
		return physics.Cylinder{
			RadiusTop:    top,
			RadiusBottom: bottom,
			Height:       c.Height,
			Segments:     segments,
		}, nil
	default:
		return nil, fmt.Errorf("unknown collider type %q", c.Type)
	}
}
