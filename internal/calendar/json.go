package calendar

import (
	"encoding/json"
	"time"

	"github.com/username/leave-planner/pkg/dateutil"
)

// Calendar dates are encoded as "YYYY-MM-DD" rather than RFC 3339 timestamps.

type dateRangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarshalJSON implements json.Marshaler for DateRange
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(dateRangeJSON{
		Start: dateutil.Format(r.Start),
		End:   dateutil.Format(r.End),
	})
}

// UnmarshalJSON implements json.Unmarshaler for DateRange.
// The decoded range is validated like NewDateRange.
func (r *DateRange) UnmarshalJSON(b []byte) error {
	var raw dateRangeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	start, err := dateutil.ParseDate(raw.Start)
	if err != nil {
		return err
	}
	end, err := dateutil.ParseDate(raw.End)
	if err != nil {
		return err
	}

	parsed, err := NewDateRange(start, end)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type holidayJSON struct {
	Date          string `json:"date"`
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name"`
	IsMovable     bool   `json:"is_movable"`
	IsCustom      bool   `json:"is_custom"`
}

// MarshalJSON implements json.Marshaler for Holiday
func (h Holiday) MarshalJSON() ([]byte, error) {
	return json.Marshal(holidayJSON{
		Date:          dateutil.Format(h.Date),
		Name:          h.Name,
		LocalizedName: h.LocalizedName,
		IsMovable:     h.IsMovable,
		IsCustom:      h.IsCustom,
	})
}

type dayInfoJSON struct {
	Date        string `json:"date"`
	Weekday     string `json:"weekday"`
	Cost        int    `json:"cost"`
	IsHoliday   bool   `json:"is_holiday"`
	IsWeekend   bool   `json:"is_weekend"`
	HolidayName string `json:"holiday_name,omitempty"`
}

// MarshalJSON implements json.Marshaler for DayInfo
func (d DayInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(dayInfoJSON{
		Date:        dateutil.Format(d.Date),
		Weekday:     d.Date.Weekday().String(),
		Cost:        d.Cost,
		IsHoliday:   d.IsHoliday,
		IsWeekend:   d.IsWeekend,
		HolidayName: d.HolidayName,
	})
}

// UnmarshalJSON implements json.Unmarshaler for DayInfo
func (d *DayInfo) UnmarshalJSON(b []byte) error {
	var raw dayInfoJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	date, err := time.Parse(dateutil.DateLayout, raw.Date)
	if err != nil {
		return err
	}

	*d = DayInfo{
		Date:        date,
		Cost:        raw.Cost,
		IsHoliday:   raw.IsHoliday,
		IsWeekend:   raw.IsWeekend,
		HolidayName: raw.HolidayName,
	}
	return nil
}
