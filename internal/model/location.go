package model

// swagger:model Location
type Location struct {
	UUIDBase
	Name     string  `gorm:"size:200;not null" json:"name"`
	ImgSrc   string  `gorm:"size:255;not null" json:"imgSrc"`
	Question string  `gorm:"type:text;not null" json:"question"`
	Answer   string  `gorm:"type:text;not null" json:"answer"` // ;-joined accepted variants
	Radius   float64 `gorm:"default:130" json:"radius"`
	Lat      float64 `gorm:"not null" json:"lat"`
	Lng      float64 `gorm:"not null" json:"lng"`
}

func (Location) TableName() string {
	return "locations"
}
