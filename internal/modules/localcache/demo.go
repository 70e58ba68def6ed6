package localcache

import (
	"time"

	"github.com/microsolutions/showcase/internal/models"
)

var demoCreated = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func demo(id, title, subtitle, description string, status models.SolutionStatus, areas []string, goals []int, hours, users int64, offset int) models.SolutionModel {
	created := demoCreated.AddDate(0, 0, offset)
	s := models.SolutionModel{
		Base:          models.Base{ID: id, CreatedAt: created, UpdatedAt: created},
		Title:         title,
		Subtitle:      subtitle,
		Description:   description,
		Status:        status,
		HoursSaved:    hours,
		UsersImpacted: users,
		Images:        []models.SolutionImage{},
	}
	s.SetAreas(areas)
	s.SetGoals(goals)
	return s
}

// DemoSolutions returns the legacy demo dataset, newest first.
func DemoSolutions() []models.SolutionModel {
	return []models.SolutionModel{
		demo("energy-forecaster", "Energy Forecaster", "Predicts building energy demand",
			"Schedules heating and cooling ahead of demand peaks using weather and occupancy data.",
			models.StatusPartnership, []string{"operations", "sustainability"}, []int{7, 11, 13}, 1800, 350, 3),
		demo("claims-triage", "Claims Triage", "Routes insurance claims in seconds",
			"Reads incoming claims, extracts the key facts and sends each one to the right team.",
			models.StatusLive, []string{"customer-service", "finance"}, []int{8}, 5200, 1200, 2),
		demo("shift-planner", "Shift Planner", "Fair rosters without spreadsheets",
			"Builds staff rosters that respect availability, skills and labour rules.",
			models.StatusUserTest, []string{"human-resources", "healthcare"}, []int{3, 8}, 950, 80, 1),
		demo("tender-summarizer", "Tender Summarizer", "Public tenders at a glance",
			"Condenses long procurement documents into a one-page brief with deadlines and requirements.",
			models.StatusPrototype, []string{"public-sector", "legal"}, []int{9, 16}, 400, 25, 0),
	}
}
