package models

import "time"

// User, Room and Tenancy are owned by the dormitory records system; the chat
// engine only reads them.

type User struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
	Phone     string `json:"phone" db:"phone"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Room struct {
	ID          string  `json:"id" db:"id"`
	RoomNumber  string  `json:"room_number" db:"room_number"`
	Capacity    int     `json:"capacity" db:"capacity"`
	Occupancy   int     `json:"occupancy" db:"occupancy"`
	Price       float64 `json:"price" db:"price"`
	HasAircon   bool    `json:"has_aircon" db:"has_aircon"`
	HasWifi     bool    `json:"has_wifi" db:"has_wifi"`
	HasBathroom bool    `json:"has_bathroom" db:"has_bathroom"`
}

type TenancyStatus string

const (
	TenancyActive TenancyStatus = "active"
	TenancyEnded  TenancyStatus = "ended"
)

type Tenancy struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	RoomID        string        `json:"room_id" db:"room_id"`
	Rent          float64       `json:"rent" db:"rent"`
	StartDate     *time.Time    `json:"start_date" db:"start_date"`
	EndDate       *time.Time    `json:"end_date" db:"end_date"`
	PaymentStatus string        `json:"payment_status" db:"payment_status"`
	Status        TenancyStatus `json:"status" db:"status"`
}
