package model

const (
	RoleLeader = "LEADER"
	RoleMember = "MEMBER"

	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type ResponseType string

const (
	ResponseConfirmed ResponseType = "CONFIRMED"
	ResponseShared    ResponseType = "SHARED"
	ResponsePilot     ResponseType = "PILOT"
	ResponseAbsent    ResponseType = "ABSENT"
)

var ResponseTypes = []ResponseType{ResponseConfirmed, ResponseShared, ResponsePilot, ResponseAbsent}

func (t ResponseType) Valid() bool {
	for _, v := range ResponseTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Tag string

const (
	TagAttack  Tag = "ATTACK"
	TagDefense Tag = "DEFENSE"
	TagAcademy Tag = "ACADEMY"
)

// Valid accepts the empty tag.
func (t Tag) Valid() bool {
	switch t {
	case "", TagAttack, TagDefense, TagAcademy:
		return true
	}
	return false
}

type GameClass string

var GameClasses = []GameClass{
	"WARRIOR", "KNIGHT", "MAGE", "ARCHER", "ASSASSIN", "CLERIC", "BARD", "SUMMONER",
}

// Valid accepts the empty class.
func (g GameClass) Valid() bool {
	if g == "" {
		return true
	}
	for _, v := range GameClasses {
		if g == v {
			return true
		}
	}
	return false
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username  string    `json:"username" binding:"required,min=3,max=64"`
	Password  string    `json:"password" binding:"required,min=6"`
	Nick      string    `json:"nick" binding:"required,max=64"`
	GameClass GameClass `json:"gameClass"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID        int    `json:"id"`
	Nick      string `json:"nick"`
	Role      string `json:"role"`
	GameClass string `json:"gameClass"`
}

type PushTokenRequest struct {
	Token string `json:"token"`
}

// RespondRequest is the body of POST /siege-war/:id/respond.
type RespondRequest struct {
	ResponseType   ResponseType `json:"responseType" binding:"required"`
	Tag            Tag          `json:"tag"`
	GameID         string       `json:"gameId"`
	Password       string       `json:"password"`
	SharedClass    GameClass    `json:"sharedClass"`
	PilotingForID  *int         `json:"pilotingForId"`
	PreferredClass GameClass    `json:"preferredClass"`
}

type RosterEntry struct {
	ID        int    `json:"id"`
	Nick      string `json:"nick"`
	GameClass string `json:"gameClass"`
}

// AvailableShare is a SHARED response nobody pilots yet. Credentials stay out.
type AvailableShare struct {
	ResponseID  int       `json:"responseId"`
	MemberID    int       `json:"memberId"`
	Nick        string    `json:"nick"`
	GameClass   string    `json:"gameClass"`
	SharedClass GameClass `json:"sharedClass,omitempty"`
	Tag         Tag       `json:"tag,omitempty"`
}

type Summary struct {
	Total        int64         `json:"total"`
	Responded    int64         `json:"responded"`
	Confirmed    int64         `json:"confirmed"`
	Shared       int64         `json:"shared"`
	Pilots       int64         `json:"pilots"`
	Absent       int64         `json:"absent"`
	NotResponded []RosterEntry `json:"notResponded"`
}

// Report is the leader view of one period, read from a single snapshot.
type Report struct {
	Responses       []SiegeWarResponse `json:"responses"`
	NotResponded    []RosterEntry      `json:"notResponded"`
	AvailableShares []AvailableShare   `json:"availableShares"`
	Summary         Summary            `json:"summary"`
}
