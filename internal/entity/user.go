package entity

import "time"

type User struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
