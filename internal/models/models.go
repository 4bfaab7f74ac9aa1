package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Sweet struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string  `gorm:"not null"                 json:"name"`
	Category string  `gorm:"not null;index"           json:"category"`
	Price    float64 `gorm:"not null"                 json:"price"`
	Quantity int     `gorm:"not null;default:0"       json:"quantity"`
}
