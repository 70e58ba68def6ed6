package models

// CompanyInfoModel is the singleton company profile.
type CompanyInfoModel struct {
	Base
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Mission     string `json:"mission"      gorm:"type:text"`
	Vision      string `json:"vision"       gorm:"type:text"`
	About       string `json:"about"        gorm:"type:text"`
	FoundedYear int    `json:"founded_year"`
	Website     string `json:"website"`
	LogoURL     string `json:"logo_url"`
	LogoPath    string `json:"-"`
}

func (CompanyInfoModel) TableName() string { return "company_info" }

// ContactInfoModel is the singleton contact sheet.
type ContactInfoModel struct {
	Base
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	LinkedIn    string `json:"linkedin"`
	Twitter     string `json:"twitter"`
	GitHub      string `json:"github"`
	OfficeHours string `json:"office_hours"`
}

func (ContactInfoModel) TableName() string { return "contact_info" }

// StatisticsModel holds the headline counters shown on the landing page.
type StatisticsModel struct {
	Base
	SolutionsDelivered int64 `json:"solutions_delivered"`
	HoursSaved         int64 `json:"hours_saved"`
	UsersImpacted      int64 `json:"users_impacted"`
	Partners           int64 `json:"partners"`
	Countries          int64 `json:"countries"`
}

func (StatisticsModel) TableName() string { return "statistics" }
