package repo

import (
	"crimecast/internal/services/predict/domain"
)

// integer columns are 32-bit in both warehouses

func dateValues(rows []domain.DateRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.DateID, int32(r.Year), int32(r.Month), int32(r.Day), r.DayOfWeek, int32(r.Quarter)}
	}
	return out
}

func timeValues(rows []domain.TimeRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{int32(r.TimeID), int32(r.Hour), r.AmPm, r.PeriodOfDay}
	}
	return out
}

func predictionValues(rows []domain.PredictionRow, district func(string) any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.DateID, int32(r.TimeID), district(r.DistrictID), r.Predicted, r.ModelName}
	}
	return out
}
