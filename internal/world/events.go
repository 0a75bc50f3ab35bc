package world

import (
	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/vec"
)

// EventType тип события очереди мира
type EventType uint8

const (
	EventTypeBlockChange  EventType = iota // блок записан
	EventTypeBlockDestroy                  // запрос на разрушение
)

// Event событие очереди мира
type Event interface {
	GetType() EventType
}

// BlockChangeEvent блок в позиции заменён
type BlockChangeEvent struct {
	Position vec.Vec3
	Old      *block.Block
	New      *block.Block
}

func (BlockChangeEvent) GetType() EventType { return EventTypeBlockChange }

// BlockDestroyEvent блок в позиции должен быть разрушен
type BlockDestroyEvent struct {
	Position vec.Vec3
	Cause    string
	Rule     string
}

func (BlockDestroyEvent) GetType() EventType { return EventTypeBlockDestroy }
