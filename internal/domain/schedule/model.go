package schedule

type Category string

const (
	CategoryMedicine    Category = "medicine"
	CategoryAppointment Category = "appointment"
	CategoryExercise    Category = "exercise"
	CategoryMeal        Category = "meal"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMedicine, CategoryAppointment, CategoryExercise, CategoryMeal, CategoryOther:
		return true
	default:
		return false
	}
}

// Schedule is a reminder authored by a family member for an elderly user.
// ScheduledAt is seconds since epoch.
type Schedule struct {
	ID          string   `json:"id"`
	ElderlyID   string   `json:"elderly_id"`
	CreatedBy   string   `json:"created_by"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	ScheduledAt int64    `json:"scheduled_at"`
	Category    Category `json:"category"`
	IsCompleted bool     `json:"is_completed"`
}
