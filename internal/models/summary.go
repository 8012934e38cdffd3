package models

// KindSummary aggregates the workouts of one kind.
type KindSummary struct {
	Kind          Kind    `json:"kind"`
	Count         int     `json:"count"`
	DistanceKm    float64 `json:"distance_km"`
	DurationMin   float64 `json:"duration_min"`
	AvgPaceMinKm  float64 `json:"avg_pace_min_per_km,omitempty"`
	AvgSpeedKmH   float64 `json:"avg_speed_km_per_h,omitempty"`
	CadenceSpm    float64 `json:"avg_cadence_spm,omitempty"`
	ElevationGain float64 `json:"elevation_gain_m,omitempty"`
}

// Summary holds per-kind totals in a fixed running, cycling order.
type Summary struct {
	Total   int         `json:"total"`
	Running KindSummary `json:"running"`
	Cycling KindSummary `json:"cycling"`
}

// Summarize totals the workouts per kind. Average pace and speed are taken
// over summed distance and duration, not averaged per workout.
func Summarize(workouts []Workout) Summary {
	s := Summary{
		Running: KindSummary{Kind: KindRunning},
		Cycling: KindSummary{Kind: KindCycling},
	}
	var cadenceSum float64
	for _, w := range workouts {
		s.Total++
		switch w.Kind() {
		case KindRunning:
			s.Running.Count++
			s.Running.DistanceKm += w.DistanceKm()
			s.Running.DurationMin += w.DurationMin()
			c, _ := w.CadenceSpm()
			cadenceSum += c
		case KindCycling:
			s.Cycling.Count++
			s.Cycling.DistanceKm += w.DistanceKm()
			s.Cycling.DurationMin += w.DurationMin()
			e, _ := w.ElevationGainM()
			s.Cycling.ElevationGain += e
		}
	}
	if s.Running.Count > 0 {
		s.Running.AvgPaceMinKm = pace(s.Running.DistanceKm, s.Running.DurationMin)
		s.Running.CadenceSpm = cadenceSum / float64(s.Running.Count)
	}
	if s.Cycling.Count > 0 {
		s.Cycling.AvgSpeedKmH = speed(s.Cycling.DistanceKm, s.Cycling.DurationMin)
	}
	return s
}

// FilterKind returns the workouts of the given kind, keeping their order.
// An empty kind matches everything.
func FilterKind(workouts []Workout, kind Kind) []Workout {
	if kind == "" {
		return workouts
	}
	var out []Workout
	for _, w := range workouts {
		if w.Kind() == kind {
			out = append(out, w)
		}
	}
	return out
}
