package models

// User is the principal mirrored from the identity provider. Subscription holds the
// tier name and is only changed through the billing path.
type User struct {
	BaseModel

	Subject   string `gorm:"column:auth0_sub;uniqueIndex;not null" json:"auth0_sub"`
	Email     string `gorm:"index;not null" json:"email"`
	FirstName string `gorm:"column:firstname" json:"firstname"`
	LastName  string `gorm:"column:lastname" json:"lastname"`
	Picture   string `json:"picture,omitempty"`

	ClubID         *string  `gorm:"size:36;index" json:"club_id"`
	Siret          *string  `gorm:"size:14" json:"siret"`
	Location       *string  `json:"location"`
	Phone          *string  `json:"phone"`
	LicenseID      *string  `json:"license_id"`
	Category       *string  `json:"category"`
	Level          *string  `json:"level"`
	StadiumAddress *string  `json:"stadium_address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`

	Subscription string `gorm:"size:16;not null;default:Free;index" json:"subscription"`
}
