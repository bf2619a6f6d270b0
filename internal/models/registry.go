package models

// VoterRegistryEntry mirrors the county's eligible-voter roll. It is reference
// data maintained by an external administrative process; the application only
// reads it.
type VoterRegistryEntry struct {
	ID            int    `gorm:"primaryKey" json:"id"`
	VoterID       string `gorm:"uniqueIndex;not null" json:"voter_id"`
	LastName      string `gorm:"not null" json:"last_name"`
	DateOfBirth   string `gorm:"not null" json:"date_of_birth"` // YYYY-MM-DD, compared exactly
	StreetAddress string `json:"street_address"`
	District      string `json:"district"`
}

func (VoterRegistryEntry) TableName() string {
	return "voter_registry"
}
