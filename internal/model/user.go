package model

type UserRole string

const (
	Participant UserRole = "participant"
	Admin       UserRole = "admin"
)

// User mirrors the profile service's table; only the export reads it.
// swagger:model User
type User struct {
	UUIDBase
	FirstName string   `gorm:"size:25;not null" json:"firstName"`
	LastName  string   `gorm:"size:25;not null" json:"lastName"`
	Email     string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Town      string   `gorm:"size:20" json:"town"`
	Team      string   `gorm:"size:50;default:'default'" json:"team"`
	Role      UserRole `gorm:"size:20;default:'participant'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
