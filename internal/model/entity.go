package model

import (
	"time"

	"gorm.io/gorm"
)

type Member struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64" json:"username"`
	Password  string    `json:"-"`
	Nick      string    `gorm:"size:64" json:"nick"`
	Role      string    `gorm:"size:16;default:MEMBER" json:"role"`
	Status    string    `gorm:"size:16;index;default:PENDING" json:"status"`
	GameClass string    `gorm:"size:32" json:"gameClass"`
	PushToken string    `gorm:"size:255" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// SiegeWar is one weekly attendance window. Rows are never deleted.
type SiegeWar struct {
	ID             int       `gorm:"primaryKey" json:"id"`
	WindowOpensAt  time.Time `json:"windowOpensAt"`
	WindowClosesAt time.Time `gorm:"index" json:"windowClosesAt"`
	IsActive       bool      `gorm:"index" json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SiegeWarResponse is unique per (war, member). PilotingForID is unique per
// war so a shared account has at most one pilot; NULLs do not collide.
type SiegeWarResponse struct {
	ID             int          `gorm:"primaryKey" json:"id"`
	SiegeWarID     int          `gorm:"uniqueIndex:uk_war_member;uniqueIndex:uk_war_pilot_target" json:"siegeWarId"`
	MemberID       int          `gorm:"uniqueIndex:uk_war_member" json:"memberId"`
	ResponseType   ResponseType `gorm:"size:16;index" json:"responseType"`
	Tag            Tag          `gorm:"size:16" json:"tag,omitempty"`
	GameID         string       `gorm:"size:128" json:"gameId,omitempty"`
	Password       string       `gorm:"size:128" json:"password,omitempty"`
	SharedClass    GameClass    `gorm:"size:32" json:"sharedClass,omitempty"`
	PilotingForID  *int         `gorm:"uniqueIndex:uk_war_pilot_target" json:"pilotingForId,omitempty"`
	PreferredClass GameClass    `gorm:"size:32" json:"preferredClass,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Member) TableName() string           { return "members" }
func (SiegeWar) TableName() string         { return "siege_wars" }
func (SiegeWarResponse) TableName() string { return "siege_war_responses" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Member{}, &SiegeWar{}, &SiegeWarResponse{})
}
