package forecast

import (
	"fmt"

	"github.com/earthdata-action/pm25-predictor/internal/features"
)

// Input is the single feature row representing the day being forecast. It is
// an explicit typed record; Row maps it to the model's named schema so that
// any column-name mismatch fails loudly instead of silently reordering.
type Input struct {
	Temperature      float64
	RelativeHumidity float64
	WindSpeed        float64
	PM25Lag1         float64
	PM25Lag2         float64
	PM25Lag3         float64
	PM25Lag7         float64
	PM25MA3          float64
	DayOfYear        int
}

// Row returns the input keyed by the model's feature column names.
func (in Input) Row() map[string]float64 {
	return map[string]float64{
		"temperature":      in.Temperature,
		"relativehumidity": in.RelativeHumidity,
		"windspeed":        in.WindSpeed,
		"pm25_lag_1":       in.PM25Lag1,
		"pm25_lag_2":       in.PM25Lag2,
		"pm25_lag_3":       in.PM25Lag3,
		"pm25_lag_7":       in.PM25Lag7,
		"pm25_ma_3":        in.PM25MA3,
		"dayofyear":        float64(in.DayOfYear),
	}
}

// assembleInput builds the next-day feature row from the tail of the daily
// table: the latest day's weather, its pm25 as lag 1, the kth-from-last pm25
// as lag k (falling back to the latest value on short tables), the latest
// trailing 3-day mean, and the day-of-year of the day after the last row.
func assembleInput(daily []features.DailyRow) (Input, error) {
	last := daily[len(daily)-1]
	if last.PM25MA3 == nil {
		return Input{}, fmt.Errorf("moving average undefined on a table of %d rows", len(daily))
	}

	return Input{
		Temperature:      last.Temperature,
		RelativeHumidity: last.RelativeHumidity,
		WindSpeed:        last.WindSpeed,
		PM25Lag1:         last.PM25,
		PM25Lag2:         pm25FromEnd(daily, 2),
		PM25Lag3:         pm25FromEnd(daily, 3),
		PM25Lag7:         pm25FromEnd(daily, 7),
		PM25MA3:          *last.PM25MA3,
		DayOfYear:        last.Date.AddDate(0, 0, 1).YearDay(),
	}, nil
}

// pm25FromEnd returns the pm25 value k rows from the end of the table, or the
// latest value when the table is shorter than k.
func pm25FromEnd(daily []features.DailyRow, k int) float64 {
	if len(daily) >= k {
		return daily[len(daily)-k].PM25
	}
	return daily[len(daily)-1].PM25
}
