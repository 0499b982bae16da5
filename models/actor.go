package models

// ActorRole identifies who submitted an order batch. The role is always
// carried explicitly next to the actor id, never derived from its shape.
type ActorRole string

const (
	ActorRoleGuest  ActorRole = "guest"
	ActorRoleWaiter ActorRole = "waiter"
)

func (r ActorRole) Valid() bool {
	return r == ActorRoleGuest || r == ActorRoleWaiter
}

// Actor is the opaque, pre-validated identity attached to a submission.
type Actor struct {
	Role        ActorRole `json:"role"`
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
}
