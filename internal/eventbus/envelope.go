package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/block-engine/internal/vec"
	"github.com/google/uuid"
)

// Типы событий блоков
const (
	TypeBlockChanged     = "block.changed"
	TypeBlockDestroyed   = "block.destroyed"
	TypeFamilyRegistered = "registry.family_registered"
)

const payloadVersion = 1

// BlockChanged нагрузка события изменения блока
type BlockChanged struct {
	Position vec.Vec3 `json:"position"`
	OldURI   string   `json:"old_uri"`
	NewURI   string   `json:"new_uri"`
	OldID    uint16   `json:"old_id"`
	NewID    uint16   `json:"new_id"`
}

// BlockDestroyed нагрузка события разрушения блока
type BlockDestroyed struct {
	Position vec.Vec3 `json:"position"`
	URI      string   `json:"uri"`
	Cause    string   `json:"cause"`
	Rule     string   `json:"rule,omitempty"`
	Entity   uint64   `json:"entity,omitempty"`
}

// FamilyRegistered нагрузка события регистрации семейства
type FamilyRegistered struct {
	URI    string            `json:"uri"`
	Blocks map[string]uint16 `json:"blocks"`
}

// NewEnvelope упаковывает нагрузку в конверт с новым UUID
func NewEnvelope(eventType, source string, priority int, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   payloadVersion,
		Priority:  priority,
		Payload:   data,
	}, nil
}

// Decode распаковывает нагрузку конверта
func Decode[T any](ev *Envelope) (T, error) {
	var out T
	if ev.Version != payloadVersion {
		return out, fmt.Errorf("неподдерживаемая версия %d события %s", ev.Version, ev.EventType)
	}
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return out, fmt.Errorf("разбор %s: %w", ev.EventType, err)
	}
	return out, nil
}
