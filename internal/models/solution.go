package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// SolutionStatus is the delivery stage of a solution.
type SolutionStatus string

const (
	StatusConcept     SolutionStatus = "concept"
	StatusPrototype   SolutionStatus = "prototype"
	StatusUserTest    SolutionStatus = "user-test"
	StatusInviteTest  SolutionStatus = "invite-test"
	StatusPartnership SolutionStatus = "partnership"
	StatusLive        SolutionStatus = "live"
)

// SolutionStatuses lists every status in declaration order.
var SolutionStatuses = []SolutionStatus{
	StatusConcept, StatusPrototype, StatusUserTest, StatusInviteTest, StatusPartnership, StatusLive,
}

func (s SolutionStatus) Valid() bool {
	for _, v := range SolutionStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// BusinessAreas lists the accepted business-area tags in declaration order.
var BusinessAreas = []string{
	"customer-service",
	"marketing",
	"sales",
	"operations",
	"finance",
	"human-resources",
	"legal",
	"healthcare",
	"education",
	"logistics",
	"sustainability",
	"public-sector",
}

// BusinessAreaIndex returns the declaration index of area, or -1.
func BusinessAreaIndex(area string) int {
	for i, v := range BusinessAreas {
		if v == area {
			return i
		}
	}
	return -1
}

// SolutionModel is one showcased microsolution.
type SolutionModel struct {
	Base
	Title                string          `json:"title"                 gorm:"not null"`
	Subtitle             string          `json:"subtitle"              gorm:"not null"`
	Description          string          `json:"description"           gorm:"type:text;not null"`
	Status               SolutionStatus  `json:"status"                gorm:"type:varchar(32);index;not null;default:'concept'"`
	BusinessAreas        datatypes.JSON  `json:"business_areas"`
	Problem              string          `json:"problem"               gorm:"type:text"`
	Solution             string          `json:"solution"              gorm:"type:text"`
	HumanImpact          string          `json:"human_impact"          gorm:"type:text"`
	SustainabilityImpact string          `json:"sustainability_impact" gorm:"type:text"`
	SDGGoals             datatypes.JSON  `json:"sdg_goals"`
	HoursSaved           int64           `json:"hours_saved"`
	UsersImpacted        int64           `json:"users_impacted"`
	IconURL              string          `json:"icon_url"`
	IconPath             string          `json:"-"`
	Images               []SolutionImage `json:"images"                gorm:"-"`
}

func (SolutionModel) TableName() string { return "solutions" }

// Areas decodes the business-area tags.
func (m *SolutionModel) Areas() []string {
	out := []string{}
	if len(m.BusinessAreas) > 0 {
		_ = json.Unmarshal(m.BusinessAreas, &out)
	}
	return out
}

func (m *SolutionModel) SetAreas(areas []string) {
	if areas == nil {
		areas = []string{}
	}
	raw, _ := json.Marshal(areas)
	m.BusinessAreas = datatypes.JSON(raw)
}

// Goals decodes the aligned development goals.
func (m *SolutionModel) Goals() []int {
	out := []int{}
	if len(m.SDGGoals) > 0 {
		_ = json.Unmarshal(m.SDGGoals, &out)
	}
	return out
}

func (m *SolutionModel) SetGoals(goals []int) {
	if goals == nil {
		goals = []int{}
	}
	raw, _ := json.Marshal(goals)
	m.SDGGoals = datatypes.JSON(raw)
}

// SolutionImage is a child row of a solution. There is no FK cascade; the repository
// removes children explicitly. Ordering is position, then created_at.
type SolutionImage struct {
	Base
	SolutionID string `json:"solution_id" gorm:"type:varchar(96);index;not null"`
	URL        string `json:"url"         gorm:"not null"`
	Path       string `json:"-"`
	Caption    string `json:"caption"`
	Position   int    `json:"position"`
}

func (SolutionImage) TableName() string { return "solution_images" }
