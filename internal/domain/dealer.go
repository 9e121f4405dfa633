package domain

import "time"

type Dealer struct {
	UserID       int64     `json:"userId"`
	BusinessName string    `json:"businessName"`
	GSTNumber    string    `json:"gstNumber,omitempty"`
	TierLevel    int       `json:"tierLevel"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Tier struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
}

var tierNames = map[int]string{
	1: "Bronze",
	2: "Silver",
	3: "Gold",
	4: "Platinum",
	5: "Diamond",
}

// TierFor returns the named tier for a stored level. Unknown levels fall
// back to Bronze.
func TierFor(level int) Tier {
	name, ok := tierNames[level]
	if !ok {
		return Tier{Level: 1, Name: tierNames[1]}
	}
	return Tier{Level: level, Name: name}
}

func ValidTierLevel(level int) bool {
	_, ok := tierNames[level]
	return ok
}
