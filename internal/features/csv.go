package features

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvHeader matches the column layout of the downloadable feature table.
var csvHeader = []string{
	"timestamp", "pm25", "temperature", "relativehumidity", "windspeed",
	"pm25_lag_1", "pm25_lag_2", "pm25_lag_3", "pm25_lag_7", "pm25_ma_3",
	"dayofyear",
}

// WriteCSV writes the daily feature table to w. The moving-average column is
// left empty for rows where it is undefined.
func WriteCSV(w io.Writer, rows []DailyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		ma := ""
		if r.PM25MA3 != nil {
			ma = formatFloat(*r.PM25MA3)
		}
		record := []string{
			r.Date.Format("2006-01-02"),
			formatFloat(r.PM25),
			formatFloat(r.Temperature),
			formatFloat(r.RelativeHumidity),
			formatFloat(r.WindSpeed),
			formatFloat(r.PM25Lag1),
			formatFloat(r.PM25Lag2),
			formatFloat(r.PM25Lag3),
			formatFloat(r.PM25Lag7),
			ma,
			strconv.Itoa(r.DayOfYear),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
