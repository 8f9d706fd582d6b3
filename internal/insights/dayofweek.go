package insights

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/money"
)

func weekday(d civil.Date) int {
	return int(d.In(time.UTC).Weekday())
}

// DayTotals is the spend on one weekday.
type DayTotals struct {
	Day     string  `json:"day"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// DayOfWeekBreakdown has one entry per weekday, Sunday first. HighestDay and
// LowestDay are empty when no debit carries a date. WeekendVsWeekdayRatio
// compares the average spend per weekend day with the average per weekday and
// is nil when nothing was spent on weekdays.
type DayOfWeekBreakdown struct {
	Days                  []DayTotals `json:"days"`
	HighestDay            string      `json:"highestDay"`
	LowestDay             string      `json:"lowestDay"`
	WeekendTotal          float64     `json:"weekendTotal"`
	WeekdayTotal          float64     `json:"weekdayTotal"`
	WeekendVsWeekdayRatio *float64    `json:"weekendVsWeekdayRatio"`
}

func dayOfWeek(spending []domain.CategorizedTransaction) DayOfWeekBreakdown {
	var accs [7]money.Accumulator
	dated := 0
	for _, t := range spending {
		if !t.HasDate() {
			continue
		}
		accs[weekday(t.Date)].Add(t.Amount)
		dated++
	}

	out := DayOfWeekBreakdown{Days: make([]DayTotals, 7)}
	for i := range accs {
		out.Days[i] = DayTotals{
			Day:     time.Weekday(i).String(),
			Total:   accs[i].Total(),
			Count:   accs[i].Count(),
			Average: accs[i].Average(),
		}
	}
	if dated == 0 {
		return out
	}

	hi, lo := 0, 0
	for i, d := range out.Days {
		if d.Total > out.Days[hi].Total {
			hi = i
		}
		if d.Total < out.Days[lo].Total {
			lo = i
		}
	}
	out.HighestDay = out.Days[hi].Day
	out.LowestDay = out.Days[lo].Day

	out.WeekendTotal = money.Sum(out.Days[time.Saturday].Total, out.Days[time.Sunday].Total)
	var weekdays money.Accumulator
	for d := time.Monday; d <= time.Friday; d++ {
		weekdays.Add(out.Days[d].Total)
	}
	out.WeekdayTotal = weekdays.Total()
	if perWeekday := out.WeekdayTotal / 5; perWeekday > 0 {
		r := (out.WeekendTotal / 2) / perWeekday
		out.WeekendVsWeekdayRatio = &r
	}
	return out
}
