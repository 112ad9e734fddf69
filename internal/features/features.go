package features

import (
	"sort"
	"time"
)

// PM25Sample is a single hourly PM2.5 observation in µg/m³.
type PM25Sample struct {
	Timestamp time.Time `json:"timestamp"`
	PM25      float64   `json:"pm25"`
}

// WeatherSample is a single hourly meteorology observation.
type WeatherSample struct {
	Timestamp        time.Time `json:"timestamp"`
	Temperature      float64   `json:"temperature"`
	RelativeHumidity float64   `json:"relativehumidity"`
	WindSpeed        float64   `json:"windspeed"`
}

// DailyRow is one day of the combined feature table. Date is midnight UTC.
// PM25MA3 is nil for the first two rows of a table, where a trailing
// 3-day window does not exist yet.
type DailyRow struct {
	Date             time.Time `json:"timestamp"`
	PM25             float64   `json:"pm25"`
	Temperature      float64   `json:"temperature"`
	RelativeHumidity float64   `json:"relativehumidity"`
	WindSpeed        float64   `json:"windspeed"`
	PM25Lag1         float64   `json:"pm25_lag_1"`
	PM25Lag2         float64   `json:"pm25_lag_2"`
	PM25Lag3         float64   `json:"pm25_lag_3"`
	PM25Lag7         float64   `json:"pm25_lag_7"`
	PM25MA3          *float64  `json:"pm25_ma_3,omitempty"`
	DayOfYear        int       `json:"dayofyear"`
}

// BuildDaily joins the two hourly series on timestamp and reduces the joined
// hours to one row per UTC calendar day, averaging each scalar. Hours present
// in only one of the two series are dropped. The result is sorted by date
// ascending with no derived features filled in; Derive does that.
func BuildDaily(pm []PM25Sample, wx []WeatherSample) []DailyRow {
	weatherByHour := make(map[int64]WeatherSample, len(wx))
	for _, s := range wx {
		weatherByHour[s.Timestamp.UTC().Truncate(time.Hour).Unix()] = s
	}

	type bucket struct {
		sumPM, sumTemp, sumRH, sumWind float64
		n                              int
	}
	days := make(map[int64]*bucket)

	for _, s := range pm {
		hour := s.Timestamp.UTC().Truncate(time.Hour)
		w, ok := weatherByHour[hour.Unix()]
		if !ok {
			continue
		}
		day := time.Date(hour.Year(), hour.Month(), hour.Day(), 0, 0, 0, 0, time.UTC)
		b, ok := days[day.Unix()]
		if !ok {
			b = &bucket{}
			days[day.Unix()] = b
		}
		b.sumPM += s.PM25
		b.sumTemp += w.Temperature
		b.sumRH += w.RelativeHumidity
		b.sumWind += w.WindSpeed
		b.n++
	}

	rows := make([]DailyRow, 0, len(days))
	for unix, b := range days {
		n := float64(b.n)
		rows = append(rows, DailyRow{
			Date:             time.Unix(unix, 0).UTC(),
			PM25:             b.sumPM / n,
			Temperature:      b.sumTemp / n,
			RelativeHumidity: b.sumRH / n,
			WindSpeed:        b.sumWind / n,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// Derive fills in the predictive features over a chronologically sorted daily
// table: pm25 lags for k in {1,2,3,7}, the trailing 3-day moving average, and
// the day-of-year of the calendar day after each row (the day a forecast made
// from that row would target).
//
// Rows with fewer than k prior days reuse their own pm25 as lag k. Short
// histories degrade gracefully rather than producing missing values.
func Derive(rows []DailyRow) []DailyRow {
	for i := range rows {
		rows[i].PM25Lag1 = lagOrSelf(rows, i, 1)
		rows[i].PM25Lag2 = lagOrSelf(rows, i, 2)
		rows[i].PM25Lag3 = lagOrSelf(rows, i, 3)
		rows[i].PM25Lag7 = lagOrSelf(rows, i, 7)

		if i >= 2 {
			ma := (rows[i-2].PM25 + rows[i-1].PM25 + rows[i].PM25) / 3
			rows[i].PM25MA3 = &ma
		}

		rows[i].DayOfYear = rows[i].Date.AddDate(0, 0, 1).YearDay()
	}
	return rows
}

func lagOrSelf(rows []DailyRow, i, k int) float64 {
	if i >= k {
		return rows[i-k].PM25
	}
	return rows[i].PM25
}
