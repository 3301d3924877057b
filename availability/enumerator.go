package availability

import (
	"meal-order-service/calendar"
	"meal-order-service/models"
)

// EnumerateInput carries everything the enumerator projects: the window,
// the customer's live orders in range, the brand's holidays, and the food
// items already narrowed to the subscription's plan/category/meal types
// and the customer's areas.
type EnumerateInput struct {
	Window       Window
	Subscription *models.Subscription
	Holidays     []models.Holiday
	Orders       []models.Order
	FoodItems    []models.FoodItem
	Locations    []models.Location
}

// Enumerate walks the window day by day and builds the orderable-calendar
// projection. Days outside the subscription period are skipped even if
// numerically inside the window; the window computation already enforces
// the bound, the re-check keeps the enumerator safe when called on its
// own. On an unavailable day the meal buckets are deliberately left
// empty, never populated.
func Enumerate(in EnumerateInput) []models.DayRecord {
	days := []models.DayRecord{}
	if in.Window.Empty {
		return days
	}

	ordersByDate := make(map[calendar.Date]models.Order, len(in.Orders))
	for _, o := range in.Orders {
		ordersByDate[o.OrderDate] = o
	}

	for d := in.Window.Start; !d.After(in.Window.End); d = d.AddDays(1) {
		if d.Before(in.Subscription.StartDate) || d.After(in.Subscription.EndDate) {
			continue
		}

		rec := models.DayRecord{
			Date:                d,
			DayOfWeek:           d.Weekday(),
			FoodItemsByMealType: emptyBuckets(),
			AvailableMealTypes:  map[string]bool{},
		}

		for _, h := range in.Holidays {
			if h.Matches(d) {
				rec.IsHoliday = true
				if rec.HolidayName == "" {
					rec.HolidayName = h.Name
				}
			}
		}

		if existing, ok := ordersByDate[d]; ok {
			rec.AlreadyOrdered = true
			rec.ExistingOrderNumber = existing.OrderNumber
		}

		rec.IsAvailable = !rec.IsHoliday && !rec.AlreadyOrdered
		if rec.IsAvailable {
			projectItems(&rec, in.FoodItems, in.Locations)
		}

		days = append(days, rec)
	}
	return days
}

func projectItems(rec *models.DayRecord, items []models.FoodItem, locations []models.Location) {
	for _, item := range items {
		if !item.IsActive || !item.AvailableOn(rec.DayOfWeek) {
			continue
		}
		bucket, ok := rec.FoodItemsByMealType[item.MealTypeID]
		if !ok {
			continue
		}
		rec.FoodItemsByMealType[item.MealTypeID] = append(bucket, models.DayItem{
			FoodItem:  item,
			Locations: matchingLocations(item, locations),
		})
		rec.AvailableMealTypes[item.MealTypeID] = true
	}
}

// matchingLocations returns the customer's delivery locations falling in
// one of the item's areas.
func matchingLocations(item models.FoodItem, locations []models.Location) []models.Location {
	var out []models.Location
	for _, l := range locations {
		if item.InArea(l.AreaID) {
			out = append(out, l)
		}
	}
	return out
}

func emptyBuckets() map[string][]models.DayItem {
	return map[string][]models.DayItem{
		models.MealBreakfast: {},
		models.MealLunch:     {},
		models.MealDinner:    {},
	}
}
