package adapters

import (
	"github.com/planora/scheduler/internal/app/models"
)

// defaultRoomCapacity is the historical fallback for room records that carry
// no capacity field.
const defaultRoomCapacity = 9999

// adaptRoom maps a raw room document onto the canonical Room.
func adaptRoom(doc map[string]interface{}) (models.Room, error) {
	id, ok := stringField(doc, "roomId", "room_id")
	if !ok {
		return models.Room{}, malformed("missing room identifier")
	}

	rawKind, _ := stringField(doc, "roomType", "type")
	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return models.Room{}, malformed("room %s: %v", id, err)
	}

	capacity, ok := intField(doc, "capacity")
	if !ok {
		capacity = defaultRoomCapacity
	}
	if capacity < 0 {
		return models.Room{}, malformed("room %s: negative capacity %d", id, capacity)
	}

	available := true
	if value, ok := boolField(doc, "isAvailable", "is_available"); ok {
		available = value
	}

	return models.Room{
		ID:        id,
		Kind:      kind,
		Capacity:  capacity,
		Available: available,
	}, nil
}
