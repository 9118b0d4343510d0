// Package models defines the entities persisted by the storage adapter:
// projects, personal mileage records and coordinator site records.
//
// Identifier and CreatedAt are assigned by the backend at creation time and
// never change afterwards. Numeric readings are string-encoded decimals, as
// submitted by the form pages; the adapter does not interpret them.
package models

import "time"

// ProjectStatus enumerates a project's lifecycle phase.
type ProjectStatus string

const (
	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
)

// Project scopes records. Deleting a project does not cascade to records
// that reference it; orphaned references are expected and tolerated.
type Project struct {
	ID          string        `json:"id" firestore:"-"`
	Name        string        `json:"name" firestore:"name"`
	Description string        `json:"description" firestore:"description"`
	Location    string        `json:"location" firestore:"location"`
	StartDate   string        `json:"startDate" firestore:"startDate"`
	EndDate     string        `json:"endDate" firestore:"endDate"`
	Status      ProjectStatus `json:"status" firestore:"status"`
	Director    string        `json:"director" firestore:"director"`
	Budget      string        `json:"budget" firestore:"budget"`
	Notes       string        `json:"notes" firestore:"notes"`
	CreatedAt   time.Time     `json:"createdAt" firestore:"createdAt"`
}

// ProjectPatch carries the replaceable Project fields for an update.
// Nil fields are left untouched.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Location    *string        `json:"location,omitempty"`
	StartDate   *string        `json:"startDate,omitempty"`
	EndDate     *string        `json:"endDate,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Director    *string        `json:"director,omitempty"`
	Budget      *string        `json:"budget,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
}

// Apply overlays the non-nil patch fields onto p.
func (patch ProjectPatch) Apply(p *Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Director != nil {
		p.Director = *patch.Director
	}
	if patch.Budget != nil {
		p.Budget = *patch.Budget
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
}

// PersonalRecord is one mileage submission. Photo references are either
// remote URLs or inline data URIs; consumers must accept both.
type PersonalRecord struct {
	ID                string    `json:"id" firestore:"-"`
	Name              string    `json:"name" firestore:"name"`
	Date              string    `json:"date" firestore:"date"`
	Mileage           string    `json:"mileage" firestore:"mileage"`
	StartLocation     string    `json:"startLocation" firestore:"startLocation"`
	EndLocation       string    `json:"endLocation" firestore:"endLocation"`
	DeparturePhotoURL string    `json:"departurePhotoUrl,omitempty" firestore:"departurePhotoUrl"`
	ReturnPhotoURL    string    `json:"returnPhotoUrl,omitempty" firestore:"returnPhotoUrl"`
	Notes             string    `json:"notes" firestore:"notes"`
	ProjectID         string    `json:"projectId" firestore:"projectId"`
	ProjectName       string    `json:"projectName" firestore:"projectName"`
	CreatedAt         time.Time `json:"createdAt" firestore:"createdAt"`
}

// CoordinatorRecord is one site-utility submission with per-category
// readings. Photo category is not retained per photo beyond what the
// synthesized filename encodes.
type CoordinatorRecord struct {
	ID                      string    `json:"id" firestore:"-"`
	Date                    string    `json:"date" firestore:"date"`
	CoordinatorName         string    `json:"coordinatorName" firestore:"coordinatorName"`
	Location                string    `json:"location" firestore:"location"`
	ElectricityUsage        string    `json:"electricityUsage" firestore:"electricityUsage"`
	ElectricityStartReading string    `json:"electricityStartReading" firestore:"electricityStartReading"`
	ElectricityEndReading   string    `json:"electricityEndReading" firestore:"electricityEndReading"`
	WaterWeight             string    `json:"waterWeight" firestore:"waterWeight"`
	WaterBottleCount        string    `json:"waterBottleCount" firestore:"waterBottleCount"`
	FoodWasteWeight         string    `json:"foodWasteWeight" firestore:"foodWasteWeight"`
	MealCount               string    `json:"mealCount" firestore:"mealCount"`
	RecycleWeight           string    `json:"recycleWeight" firestore:"recycleWeight"`
	RecycleTypes            []string  `json:"recycleTypes" firestore:"recycleTypes"`
	PhotoURLs               []string  `json:"photoUrls,omitempty" firestore:"photoUrls"`
	Notes                   string    `json:"notes" firestore:"notes"`
	ProjectID               string    `json:"projectId" firestore:"projectId"`
	ProjectName             string    `json:"projectName" firestore:"projectName"`
	CreatedAt               time.Time `json:"createdAt" firestore:"createdAt"`
}
