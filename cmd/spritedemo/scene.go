package main

import (
	"errors"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine/sprite"
	"github.com/Carmen-Shannon/oxy-sprite/engine/spritelist"
)

const (
	minSpriteSize = 8
	maxSpriteSize = 48
	maxSpeed      = 120
	spinSpeed     = 90
	clickRadius   = 2
)

// bouncer is the per-sprite motion state kept outside the list.
type bouncer struct {
	vx, vy float32
	spin   float32
}

// scene animates one sprite list inside a width by height box and maps key presses to list
// operations.
type scene struct {
	list          spritelist.SpriteList
	rng           *rand.Rand
	width, height float32
	motion        map[uint64]bouncer
	sortByDepth   bool
}

func newScene(list spritelist.SpriteList, count int, width, height float32, seed uint64) (*scene, error) {
	s := &scene{
		list:   list,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		width:  width,
		height: height,
		motion: make(map[uint64]bouncer, count),
	}
	batch := make([]sprite.Sprite, count)
	for i := range batch {
		batch[i] = s.spawn(s.rng.Float32()*width, s.rng.Float32()*height)
	}
	if err := list.Extend(batch); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *scene) spawn(x, y float32) sprite.Sprite {
	size := minSpriteSize + s.rng.Float32()*(maxSpriteSize-minSpriteSize)
	sp := sprite.NewSprite(
		sprite.WithPosition(x, y),
		sprite.WithSize(size, size),
		sprite.WithColor([4]float32{s.rng.Float32(), s.rng.Float32(), s.rng.Float32(), 1}),
		sprite.WithAngle(s.rng.Float32()*360),
	)
	s.motion[sp.ID()] = bouncer{
		vx:   (s.rng.Float32()*2 - 1) * maxSpeed,
		vy:   (s.rng.Float32()*2 - 1) * maxSpeed,
		spin: (s.rng.Float32()*2 - 1) * spinSpeed,
	}
	return sp
}

func (s *scene) resize(width, height int) {
	s.width, s.height = float32(width), float32(height)
}

// tick moves every sprite, bouncing off the box edges.
func (s *scene) tick(dt float32) {
	for _, sp := range s.list.All() {
		m := s.motion[sp.ID()]
		x, y := sp.Position()
		x += m.vx * dt
		y += m.vy * dt
		if x < 0 || x > s.width {
			m.vx = -m.vx
			x = min(max(x, 0), s.width)
		}
		if y < 0 || y > s.height {
			m.vy = -m.vy
			y = min(max(y, 0), s.height)
		}
		s.motion[sp.ID()] = m
		sp.SetPosition(x, y)
		if m.spin != 0 {
			sp.SetAngle(sp.Angle() + m.spin*dt)
		}
	}
	if s.sortByDepth {
		s.list.Sort(depthKey, false)
	}
}

// depthKey draws sprites lower on screen in front.
func depthKey(sp sprite.Sprite) float64 {
	_, y := sp.Position()
	return float64(y)
}

// key applies the list operation bound to keyCode. Unbound keys are ignored.
func (s *scene) key(keyCode uint32) error {
	switch keyCode {
	case common.KeyS:
		s.sortByDepth = false
		s.list.Shuffle(s.rng)
	case common.KeyR:
		s.sortByDepth = false
		s.list.Reverse()
	case common.KeySpace:
		s.sortByDepth = !s.sortByDepth
		if s.sortByDepth {
			s.list.Sort(depthKey, false)
		}
	case common.KeyX:
		sp, err := s.list.PopLast()
		if errors.Is(err, spritelist.ErrIndexOutOfRange) {
			return nil
		}
		if err != nil {
			return err
		}
		delete(s.motion, sp.ID())
	case common.KeyC:
		s.list.Clear()
		clear(s.motion)
	}
	return nil
}

// click removes the topmost sprite under (x, y), or spawns one there when nothing is hit.
func (s *scene) click(x, y float32) error {
	hits := s.list.Query(common.RectFromCenter(x, y, clickRadius, clickRadius))
	top, topPos := sprite.Sprite(nil), -1
	for _, h := range hits {
		pos, err := s.list.Index(h)
		if err != nil {
			return err
		}
		if pos > topPos {
			top, topPos = h, pos
		}
	}
	if top == nil {
		return s.list.Append(s.spawn(x, y))
	}
	delete(s.motion, top.ID())
	return s.list.Remove(top)
}
