// Package delay планировщик разовых отложенных действий для сущностей блоков.
// Действия ключуются парой (сущность, id действия) и выдаются симуляции
// при вызове Due из её тика.
package delay

import (
	"sort"
	"sync"
	"time"
)

// Action созревшее отложенное действие
type Action struct {
	Entity   uint64
	ActionID string
	Due      time.Time
}

type key struct {
	entity uint64
	action string
}

// Manager хранит не более одного ожидающего действия на ключ
type Manager struct {
	mu      sync.Mutex
	clock   func() time.Time
	pending map[key]time.Time
}

// NewManager создаёт менеджер. clock == nil означает time.Now.
func NewManager(clock func() time.Time) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		clock:   clock,
		pending: make(map[key]time.Time),
	}
}

// ScheduleOnce планирует действие через delay. Уже ожидающее действие
// с тем же ключом переносится на новый срок.
func (m *Manager) ScheduleOnce(entity uint64, actionID string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[key{entity, actionID}] = m.clock().Add(delay)
}

// HasPending сообщает, ожидает ли действие с этим ключом
func (m *Manager) HasPending(entity uint64, actionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key{entity, actionID}]
	return ok
}

// Cancel отменяет действие. Возвращает false, если его не было.
func (m *Manager) Cancel(entity uint64, actionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{entity, actionID}
	if _, ok := m.pending[k]; !ok {
		return false
	}
	delete(m.pending, k)
	return true
}

// CancelEntity отменяет все действия сущности (сущность уничтожена)
func (m *Manager) CancelEntity(entity uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.pending {
		if k.entity == entity {
			delete(m.pending, k)
			n++
		}
	}
	return n
}

// Pending количество ожидающих действий
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Due извлекает действия со сроком не позже now в порядке срока
func (m *Manager) Due(now time.Time) []Action {
	m.mu.Lock()
	var due []Action
	for k, at := range m.pending {
		if !at.After(now) {
			due = append(due, Action{Entity: k.entity, ActionID: k.action, Due: at})
			delete(m.pending, k)
		}
	}
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if !due[i].Due.Equal(due[j].Due) {
			return due[i].Due.Before(due[j].Due)
		}
		if due[i].Entity != due[j].Entity {
			return due[i].Entity < due[j].Entity
		}
		return due[i].ActionID < due[j].ActionID
	})
	return due
}
