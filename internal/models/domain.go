package models

import (
	"fmt"
	"strings"
)

// ProjectStatus is the lifecycle state of a project as the backend names it
type ProjectStatus string

// Project statuses
const (
	ProjectInProgress  ProjectStatus = "В процессе"
	ProjectCompleted   ProjectStatus = "Завершен"
	ProjectPlanned     ProjectStatus = "Запланирован"
	ProjectUnderReview ProjectStatus = "На рассмотрении"
)

var projectStatusAliases = map[string]ProjectStatus{
	"in-progress":  ProjectInProgress,
	"completed":    ProjectCompleted,
	"planned":      ProjectPlanned,
	"under-review": ProjectUnderReview,
}

// ProjectStatuses returns all statuses in display order
func ProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectPlanned, ProjectInProgress, ProjectUnderReview, ProjectCompleted}
}

// ParseProjectStatus принимает значение статуса или английский алиас
func ParseProjectStatus(s string) (ProjectStatus, error) {
	s = strings.TrimSpace(s)
	if st, ok := projectStatusAliases[strings.ToLower(s)]; ok {
		return st, nil
	}
	for _, st := range ProjectStatuses() {
		if s == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// Project представляет научный проект
type Project struct {
	ProjectName     string        `json:"projectName"`
	Description     string        `json:"description"`
	StartDate       string        `json:"startDate"`
	EndDate         string        `json:"endDate"`
	Status          ProjectStatus `json:"status"`
	ManagerFullName string        `json:"managerFullName,omitempty"`
	ProjectID       int64         `json:"projectId"`
	ManagerID       int64         `json:"managerId"`
}

// Task представляет задачу проекта
type Task struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
	TaskID      int64  `json:"taskId"`
	ProjectID   int64  `json:"projectId"`
	AssignedTo  int64  `json:"assignedTo"`
}

// TeamMember представляет участника команды проекта
type TeamMember struct {
	FullName      string `json:"fullName,omitempty"`
	RoleInProject string `json:"roleInProject"`
	ProjectID     int64  `json:"projectId"`
	UserID        int64  `json:"userId"`
}

// ProjectBudget представляет бюджет проекта
type ProjectBudget struct {
	AllocatedAmount float64 `json:"allocatedAmount"`
	SpentAmount     float64 `json:"spentAmount"`
}

// Remaining returns the unspent part of the budget
func (b ProjectBudget) Remaining() float64 {
	return b.AllocatedAmount - b.SpentAmount
}

// FundingSource представляет источник финансирования
type FundingSource struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	FundingSourceID int64  `json:"fundingSourceId"`
}

// Publication представляет публикацию по проекту
type Publication struct {
	Title           string   `json:"title"`
	AbstractText    string   `json:"abstractText"`
	PublicationDate string   `json:"publicationDate"`
	Link            string   `json:"link"`
	FileLinks       []string `json:"fileLinks"`
	PublicationID   int64    `json:"publicationId"`
	ProjectID       int64    `json:"projectId"`
}

// Equipment представляет единицу оборудования
type Equipment struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Location           string `json:"location"`
	AvailabilityStatus string `json:"availabilityStatus"`
	EquipmentID        int64  `json:"equipmentId"`
}

// Backup описывает файл резервной копии базы данных
type Backup struct {
	FileName  string `json:"fileName"`
	CreatedAt string `json:"createdAt"`
}

// ProjectOverview собирает всё, что показывает карточка проекта
type ProjectOverview struct {
	Project        *Project
	Budget         *ProjectBudget
	Tasks          []Task
	Team           []TeamMember
	FundingSources []FundingSource
}
