package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrPlanExists   = errors.New("plan already exists")
	ErrInvalidPlan  = errors.New("invalid plan")
)

// Category groups plan items. Each active category carries an equal share of the daily progress.
type Category string

const (
	CategoryPhysical   Category = "physical"
	CategoryYoga       Category = "yoga"
	CategoryMeditation Category = "meditation"
)

// ParseCategory accepts both the short names and the display labels
// ("Physical Exercise", "Yoga", "Meditation"), case-insensitive.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physical", "physical exercise", "physical_exercise":
		return CategoryPhysical, nil
	case "yoga":
		return CategoryYoga, nil
	case "meditation":
		return CategoryMeditation, nil
	default:
		return "", fmt.Errorf("%w: unknown category [%s]", ErrInvalidPlan, s)
	}
}

func (c Category) String() string {
	return string(c)
}

type Unit string

const (
	UnitFrequency Unit = "freq"
	UnitMinutes   Unit = "min"
)

type Item struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	// Value is a repetition count or minutes, depending on Unit.
	Value int  `json:"value"`
	Unit  Unit `json:"unit"`
}

type Plan struct {
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Items     []Item    `json:"items"`
}

// Count returns the number of plan items in the given category.
func (p *Plan) Count(category Category) int {
	if p == nil {
		return 0
	}
	count := 0
	for _, item := range p.Items {
		if item.Category == category {
			count++
		}
	}
	return count
}

// Normalize parses the categories and fills in default units, then validates the items.
func (p *Plan) Normalize() error {
	if len(p.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidPlan)
	}

	for i := range p.Items {
		item := &p.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return fmt.Errorf("%w: item %d has no name", ErrInvalidPlan, i)
		}

		category, err := ParseCategory(string(item.Category))
		if err != nil {
			return err
		}
		item.Category = category

		if item.Value <= 0 {
			return fmt.Errorf("%w: item [%s] value must be positive", ErrInvalidPlan, item.Name)
		}

		switch item.Unit {
		case UnitFrequency, UnitMinutes:
		case "":
			item.Unit = UnitFrequency
			if category == CategoryMeditation {
				item.Unit = UnitMinutes
			}
		default:
			return fmt.Errorf("%w: item [%s] unknown unit [%s]", ErrInvalidPlan, item.Name, item.Unit)
		}
	}

	return nil
}
