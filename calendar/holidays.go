package calendar

// Bundled holiday dates per calendar, keyed YYYY-MM-DD. Lists cover the
// principal market holidays for 2024-2027 (observed dates, not nominal
// dates). Extend per venue data when rolling the window forward.

var usnyHolidayList = []string{
	"2024-01-01", "2024-01-15", "2024-02-19", "2024-05-27", "2024-06-19",
	"2024-07-04", "2024-09-02", "2024-10-14", "2024-11-11", "2024-11-28",
	"2024-12-25",
	"2025-01-01", "2025-01-20", "2025-02-17", "2025-05-26", "2025-06-19",
	"2025-07-04", "2025-09-01", "2025-10-13", "2025-11-11", "2025-11-27",
	"2025-12-25",
	"2026-01-01", "2026-01-19", "2026-02-16", "2026-05-25", "2026-06-19",
	"2026-07-03", "2026-09-07", "2026-10-12", "2026-11-11", "2026-11-26",
	"2026-12-25",
	"2027-01-01", "2027-01-18", "2027-02-15", "2027-05-31", "2027-06-18",
	"2027-07-05", "2027-09-06", "2027-10-11", "2027-11-11", "2027-11-25",
	"2027-12-24",
}

var targetHolidayList = []string{
	"2024-01-01", "2024-03-29", "2024-04-01", "2024-05-01", "2024-12-25", "2024-12-26",
	"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-01", "2025-12-25", "2025-12-26",
	"2026-01-01", "2026-04-03", "2026-04-06", "2026-05-01", "2026-12-25", "2026-12-26",
	"2027-01-01", "2027-03-26", "2027-03-29", "2027-05-01", "2027-12-25", "2027-12-26",
}

var gbloHolidayList = []string{
	"2024-01-01", "2024-03-29", "2024-04-01", "2024-05-06", "2024-05-27",
	"2024-08-26", "2024-12-25", "2024-12-26",
	"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-05", "2025-05-26",
	"2025-08-25", "2025-12-25", "2025-12-26",
	"2026-01-01", "2026-04-03", "2026-04-06", "2026-05-04", "2026-05-25",
	"2026-08-31", "2026-12-25", "2026-12-28",
	"2027-01-01", "2027-03-26", "2027-03-29", "2027-05-03", "2027-05-31",
	"2027-08-30", "2027-12-27", "2027-12-28",
}

var jptoHolidayList = []string{
	"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-13", "2025-02-11",
	"2025-02-24", "2025-03-20", "2025-04-29", "2025-05-05", "2025-05-06",
	"2025-07-21", "2025-08-11", "2025-09-15", "2025-09-23", "2025-10-13",
	"2025-11-03", "2025-11-24", "2025-12-31",
	"2026-01-01", "2026-01-02", "2026-01-12", "2026-02-11", "2026-02-23",
	"2026-03-20", "2026-04-29", "2026-05-04", "2026-05-05", "2026-05-06",
	"2026-07-20", "2026-08-11", "2026-09-21", "2026-09-22", "2026-09-23",
	"2026-10-12", "2026-11-03", "2026-11-23", "2026-12-31",
}

var krseHolidayList = []string{
	"2025-01-01", "2025-01-28", "2025-01-29", "2025-01-30", "2025-03-03",
	"2025-05-05", "2025-05-06", "2025-06-06", "2025-08-15", "2025-10-03",
	"2025-10-06", "2025-10-07", "2025-10-08", "2025-10-09", "2025-12-25",
	"2025-12-31",
	"2026-01-01", "2026-02-16", "2026-02-17", "2026-02-18", "2026-03-02",
	"2026-05-05", "2026-05-25", "2026-08-17", "2026-09-24", "2026-09-25",
	"2026-10-05", "2026-10-09", "2026-12-25", "2026-12-31",
}

var holidaySets map[CalendarID]map[string]struct{}

func init() {
	lists := map[CalendarID][]string{
		USNY:   usnyHolidayList,
		TARGET: targetHolidayList,
		GBLO:   gbloHolidayList,
		JPTO:   jptoHolidayList,
		KRSE:   krseHolidayList,
	}
	holidaySets = make(map[CalendarID]map[string]struct{}, len(lists))
	for cal, list := range lists {
		set := make(map[string]struct{}, len(list))
		for _, d := range list {
			set[d] = struct{}{}
		}
		holidaySets[cal] = set
	}
}
