package location

import "time"

// Location is a physical place where assets live. Locations form a tree via
// ParentID; audits always target a single location.
type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	ParentID    string    `json:"parent_ubicacion_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Node is a location joined with its children, used by the tree endpoint.
type Node struct {
	Location
	Children []Node `json:"sub_ubicaciones,omitempty"`
}
