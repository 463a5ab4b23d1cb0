package models

// EntityType names the typed spans the NLU service can return.
type EntityType string

const (
	EntityFirstName  EntityType = "firstName"
	EntityLastName   EntityType = "lastName"
	EntityIdentifier EntityType = "identifier"
	EntityRoomNumber EntityType = "roomNumber"
	EntityStartDate  EntityType = "startDate"
	EntityEndDate    EntityType = "endDate"
	EntityStatus     EntityType = "status"
)

type Entity struct {
	Type  EntityType `json:"entity"`
	Value string     `json:"value"`
}
