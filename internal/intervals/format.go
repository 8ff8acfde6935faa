package intervals

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// field returns a JSON value rendered for display, falling back through
// alternate key names and finally to "N/A".
func field(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return "N/A"
}

// fieldOrZero is like field but falls back to "0" for numeric values
// that are simply absent.
func fieldOrZero(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return "0"
}

// FormatActivitySummary renders an activity JSON object as readable text.
func FormatActivitySummary(activity gjson.Result) string {
	startTime := field(activity, "startTime", "start_date")
	if len(startTime) > 10 {
		if t, err := time.Parse(time.RFC3339, strings.Replace(startTime, "Z", "+00:00", 1)); err == nil {
			startTime = t.Format("2006-01-02 15:04:05")
		} else if t, err := time.Parse("2006-01-02T15:04:05", startTime); err == nil {
			startTime = t.Format("2006-01-02 15:04:05")
		}
	}

	rpe := field(activity, "perceived_exertion", "icu_rpe")
	if v := activity.Get("perceived_exertion"); v.Type == gjson.Number {
		rpe = v.String() + "/10"
	} else if v := activity.Get("icu_rpe"); v.Type == gjson.Number {
		rpe = v.String() + "/10"
	}
	feel := field(activity, "feel")
	if v := activity.Get("feel"); v.Type == gjson.Number {
		feel = v.String() + "/5"
	}

	name := activity.Get("name").String()
	if name == "" {
		name = "Unnamed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nActivity: %s\n", name)
	fmt.Fprintf(&b, "ID: %s\n", field(activity, "id"))
	fmt.Fprintf(&b, "Type: %s\n", firstOr(activity, "Unknown", "type"))
	fmt.Fprintf(&b, "Date: %s\n", startTime)
	fmt.Fprintf(&b, "Description: %s\n", field(activity, "description"))
	fmt.Fprintf(&b, "Distance: %s meters\n", fieldOrZero(activity, "distance"))
	fmt.Fprintf(&b, "Duration: %s seconds\n", fieldOrZero(activity, "duration", "elapsed_time"))
	fmt.Fprintf(&b, "Moving Time: %s seconds\n", field(activity, "moving_time"))
	fmt.Fprintf(&b, "Elevation Gain: %s meters\n", fieldOrZero(activity, "elevationGain", "total_elevation_gain"))
	fmt.Fprintf(&b, "Elevation Loss: %s meters\n", field(activity, "total_elevation_loss"))
	b.WriteString("\nPower Data:\n")
	fmt.Fprintf(&b, "Average Power: %s watts\n", field(activity, "avgPower", "icu_average_watts", "average_watts"))
	fmt.Fprintf(&b, "Weighted Avg Power: %s watts\n", field(activity, "icu_weighted_avg_watts"))
	fmt.Fprintf(&b, "Training Load: %s\n", field(activity, "trainingLoad", "icu_training_load"))
	fmt.Fprintf(&b, "FTP: %s watts\n", field(activity, "icu_ftp"))
	fmt.Fprintf(&b, "Kilojoules: %s\n", field(activity, "icu_joules"))
	fmt.Fprintf(&b, "Intensity: %s\n", field(activity, "icu_intensity"))
	fmt.Fprintf(&b, "Power:HR Ratio: %s\n", field(activity, "icu_power_hr"))
	fmt.Fprintf(&b, "Variability Index: %s\n", field(activity, "icu_variability_index"))
	b.WriteString("\nHeart Rate Data:\n")
	fmt.Fprintf(&b, "Average Heart Rate: %s bpm\n", field(activity, "avgHr", "average_heartrate"))
	fmt.Fprintf(&b, "Max Heart Rate: %s bpm\n", field(activity, "max_heartrate"))
	fmt.Fprintf(&b, "LTHR: %s bpm\n", field(activity, "lthr"))
	fmt.Fprintf(&b, "Resting HR: %s bpm\n", field(activity, "icu_resting_hr"))
	fmt.Fprintf(&b, "Decoupling: %s\n", field(activity, "decoupling"))
	b.WriteString("\nOther Metrics:\n")
	fmt.Fprintf(&b, "Cadence: %s rpm\n", field(activity, "average_cadence"))
	fmt.Fprintf(&b, "Calories: %s\n", field(activity, "calories"))
	fmt.Fprintf(&b, "Average Speed: %s m/s\n", field(activity, "average_speed"))
	fmt.Fprintf(&b, "Max Speed: %s m/s\n", field(activity, "max_speed"))
	fmt.Fprintf(&b, "RPE: %s\n", rpe)
	fmt.Fprintf(&b, "Session RPE: %s\n", field(activity, "session_rpe"))
	fmt.Fprintf(&b, "Feel: %s\n", feel)
	b.WriteString("\nTraining Metrics:\n")
	fmt.Fprintf(&b, "Fitness (CTL): %s\n", field(activity, "icu_ctl"))
	fmt.Fprintf(&b, "Fatigue (ATL): %s\n", field(activity, "icu_atl"))
	fmt.Fprintf(&b, "TRIMP: %s\n", field(activity, "trimp"))
	fmt.Fprintf(&b, "Efficiency Factor: %s\n", field(activity, "icu_efficiency_factor"))
	b.WriteString("\nDevice Info:\n")
	fmt.Fprintf(&b, "Device: %s\n", field(activity, "device_name"))
	fmt.Fprintf(&b, "Power Meter: %s\n", field(activity, "power_meter"))
	fmt.Fprintf(&b, "File Type: %s\n", field(activity, "file_type"))

	return b.String()
}

func firstOr(r gjson.Result, fallback string, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null && v.String() != "" {
			return v.String()
		}
	}
	return fallback
}

// FormatEventSummary renders a calendar event as a short listing entry.
func FormatEventSummary(event gjson.Result) string {
	eventType := "Other"
	if event.Get("workout").Exists() && event.Get("workout").Type != gjson.Null {
		eventType = "Workout"
	} else if event.Get("race").Bool() {
		eventType = "Race"
	}

	name := event.Get("name").String()
	if name == "" {
		name = "Unnamed"
	}
	desc := event.Get("description").String()
	if desc == "" {
		desc = "No description"
	}

	return fmt.Sprintf("Date: %s\nID: %s\nType: %s\nName: %s\nDescription: %s",
		firstOr(event, "Unknown", "start_date_local", "date"),
		field(event, "id"),
		eventType,
		name,
		desc,
	)
}

// FormatEventDetails renders the full detail view for one event,
// including nested workout and race information when present.
func FormatEventDetails(event gjson.Result) string {
	name := event.Get("name").String()
	if name == "" {
		name = "Unnamed"
	}
	desc := event.Get("description").String()
	if desc == "" {
		desc = "No description"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Event Details:\n\nID: %s\n", field(event, "id"))
	fmt.Fprintf(&b, "Date: %s\n", firstOr(event, "Unknown", "date"))
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Description: %s", desc)

	if workout := event.Get("workout"); workout.Exists() && workout.IsObject() {
		fmt.Fprintf(&b, "\n\nWorkout Information:\n")
		fmt.Fprintf(&b, "Workout ID: %s\n", field(workout, "id"))
		fmt.Fprintf(&b, "Sport: %s\n", firstOr(workout, "Unknown", "sport"))
		fmt.Fprintf(&b, "Duration: %s seconds\n", fieldOrZero(workout, "duration"))
		fmt.Fprintf(&b, "TSS: %s", field(workout, "tss"))
		if iv := workout.Get("intervals"); iv.IsArray() {
			fmt.Fprintf(&b, "\nIntervals: %d", len(iv.Array()))
		}
	}

	if event.Get("race").Bool() {
		fmt.Fprintf(&b, "\n\nRace Information:\n")
		fmt.Fprintf(&b, "Priority: %s\n", field(event, "priority"))
		fmt.Fprintf(&b, "Result: %s", field(event, "result"))
	}

	if cal := event.Get("calendar"); cal.Exists() && cal.IsObject() {
		fmt.Fprintf(&b, "\n\nCalendar: %s", field(cal, "name"))
	}

	return b.String()
}

// wellnessStandardFields are the known top-level keys of a wellness
// entry; anything else is rendered under Custom Fields.
var wellnessStandardFields = map[string]bool{
	"date": true, "id": true, "ctl": true, "atl": true, "rampRate": true,
	"ctlLoad": true, "atlLoad": true, "sportInfo": true, "weight": true,
	"restingHR": true, "hrv": true, "hrvSDNN": true, "avgSleepingHR": true,
	"spO2": true, "systolic": true, "diastolic": true, "respiration": true,
	"bloodGlucose": true, "lactate": true, "vo2max": true, "bodyFat": true,
	"abdomen": true, "baevskySI": true, "sleepSecs": true, "sleepHours": true,
	"sleepScore": true, "sleepQuality": true, "readiness": true,
	"menstrualPhase": true, "menstrualPhasePredicted": true, "soreness": true,
	"fatigue": true, "stress": true, "mood": true, "motivation": true,
	"injury": true, "kcalConsumed": true, "hydration": true,
	"hydrationVolume": true, "steps": true, "comments": true, "locked": true,
	"updated": true,
}

// FormatWellnessEntry renders one wellness entry with all known fields
// plus any custom fields the athlete has defined.
func FormatWellnessEntry(entry gjson.Result) string {
	sleepHours := "N/A"
	if v := entry.Get("sleepSecs"); v.Exists() && v.Type == gjson.Number {
		sleepHours = fmt.Sprintf("%.2f", v.Float()/3600)
	} else if v := entry.Get("sleepHours"); v.Exists() && v.Type == gjson.Number {
		sleepHours = v.String()
	}

	capitalize := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	}
	menstrualPhase := "N/A"
	if v := entry.Get("menstrualPhase"); v.Type == gjson.String {
		menstrualPhase = capitalize(v.String())
	}
	menstrualPhasePredicted := "N/A"
	if v := entry.Get("menstrualPhasePredicted"); v.Type == gjson.String {
		menstrualPhasePredicted = capitalize(v.String())
	}

	sportInfo := "  None available"
	if si := entry.Get("sportInfo"); si.IsArray() && len(si.Array()) > 0 {
		var lines []string
		for _, sport := range si.Array() {
			lines = append(lines, fmt.Sprintf("  * %s: eFTP = %s",
				firstOr(sport, "Unknown", "type"), field(sport, "eftp")))
		}
		sportInfo = strings.Join(lines, "\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", firstOr(entry, "Unknown date", "date"))
	fmt.Fprintf(&b, "ID: %s\n\n", field(entry, "id"))
	b.WriteString("Training Metrics:\n")
	fmt.Fprintf(&b, "  Fitness (CTL): %s\n", field(entry, "ctl"))
	fmt.Fprintf(&b, "  Fatigue (ATL): %s\n", field(entry, "atl"))
	fmt.Fprintf(&b, "  Ramp Rate: %s\n", field(entry, "rampRate"))
	fmt.Fprintf(&b, "  CTL Load: %s\n", field(entry, "ctlLoad"))
	fmt.Fprintf(&b, "  ATL Load: %s\n\n", field(entry, "atlLoad"))
	fmt.Fprintf(&b, "Sport-Specific Info:\n%s\n\n", sportInfo)
	b.WriteString("Vital Signs:\n")
	fmt.Fprintf(&b, "  Weight: %s kg\n", field(entry, "weight"))
	fmt.Fprintf(&b, "  Resting HR: %s bpm\n", field(entry, "restingHR"))
	fmt.Fprintf(&b, "  HRV: %s\n", field(entry, "hrv"))
	fmt.Fprintf(&b, "  HRV SDNN: %s\n", field(entry, "hrvSDNN"))
	fmt.Fprintf(&b, "  Average Sleeping HR: %s bpm\n", field(entry, "avgSleepingHR"))
	fmt.Fprintf(&b, "  SpO2: %s%%\n", field(entry, "spO2"))
	fmt.Fprintf(&b, "  Blood Pressure: %s/%s mmHg\n", field(entry, "systolic"), field(entry, "diastolic"))
	fmt.Fprintf(&b, "  Respiration: %s breaths/min\n", field(entry, "respiration"))
	fmt.Fprintf(&b, "  Blood Glucose: %s mmol/L\n", field(entry, "bloodGlucose"))
	fmt.Fprintf(&b, "  Lactate: %s mmol/L\n", field(entry, "lactate"))
	fmt.Fprintf(&b, "  VO2 Max: %s ml/kg/min\n", field(entry, "vo2max"))
	fmt.Fprintf(&b, "  Body Fat: %s%%\n\n", field(entry, "bodyFat"))
	b.WriteString("Sleep & Recovery:\n")
	fmt.Fprintf(&b, "  Sleep: %s hours\n", sleepHours)
	fmt.Fprintf(&b, "  Sleep Score: %s\n", field(entry, "sleepScore"))
	fmt.Fprintf(&b, "  Sleep Quality: %s/4\n", field(entry, "sleepQuality"))
	fmt.Fprintf(&b, "  Readiness Score: %s\n\n", field(entry, "readiness"))
	b.WriteString("Menstrual Tracking:\n")
	fmt.Fprintf(&b, "  Menstrual Phase: %s\n", menstrualPhase)
	fmt.Fprintf(&b, "  Predicted Phase: %s\n\n", menstrualPhasePredicted)
	b.WriteString("Subjective Feelings:\n")
	fmt.Fprintf(&b, "  Soreness: %s/14\n", field(entry, "soreness"))
	fmt.Fprintf(&b, "  Fatigue: %s/4\n", field(entry, "fatigue"))
	fmt.Fprintf(&b, "  Stress: %s/4\n", field(entry, "stress"))
	fmt.Fprintf(&b, "  Mood: %s/4\n", field(entry, "mood"))
	fmt.Fprintf(&b, "  Motivation: %s/4\n", field(entry, "motivation"))
	fmt.Fprintf(&b, "  Injury Level: %s/4\n\n", field(entry, "injury"))
	b.WriteString("Nutrition & Hydration:\n")
	fmt.Fprintf(&b, "  Calories Consumed: %s kcal\n", field(entry, "kcalConsumed"))
	fmt.Fprintf(&b, "  Hydration Score: %s/4\n", field(entry, "hydration"))
	fmt.Fprintf(&b, "  Hydration Volume: %s ml\n\n", field(entry, "hydrationVolume"))
	b.WriteString("Activity:\n")
	fmt.Fprintf(&b, "  Steps: %s", field(entry, "steps"))

	var custom []string
	entry.ForEach(func(key, value gjson.Result) bool {
		if !wellnessStandardFields[key.String()] && value.Type != gjson.Null {
			custom = append(custom, fmt.Sprintf("  %s: %s", key.String(), value.String()))
		}
		return true
	})
	if len(custom) > 0 {
		b.WriteString("\n\nCustom Fields:\n")
		b.WriteString(strings.Join(custom, "\n"))
	}

	comments := entry.Get("comments").String()
	if comments == "" {
		comments = "No comments"
	}
	status := "Unlocked"
	if entry.Get("locked").Bool() {
		status = "Locked"
	}
	fmt.Fprintf(&b, "\n\nComments: %s\n", comments)
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Last Updated: %s", firstOr(entry, "Unknown", "updated"))

	return b.String()
}

// FormatIntervals renders the interval analysis response, covering
// individual intervals and interval groups.
func FormatIntervals(data gjson.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intervals Analysis:\n\nID: %s\n", field(data, "id"))
	fmt.Fprintf(&b, "Analyzed: %s\n\n", field(data, "analyzed"))

	if ivs := data.Get("icu_intervals"); ivs.IsArray() && len(ivs.Array()) > 0 {
		b.WriteString("Individual Intervals:\n\n")
		for i, iv := range ivs.Array() {
			n := i + 1
			label := iv.Get("label").String()
			if label == "" {
				label = fmt.Sprintf("Interval %d", n)
			}
			fmt.Fprintf(&b, "[%d] %s (%s)\n", n, label, firstOr(iv, "Unknown", "type"))
			fmt.Fprintf(&b, "Duration: %s seconds (moving: %s seconds)\n",
				fieldOrZero(iv, "elapsed_time"), fieldOrZero(iv, "moving_time"))
			fmt.Fprintf(&b, "Distance: %s meters\n\n", fieldOrZero(iv, "distance"))
			b.WriteString("Power Metrics:\n")
			fmt.Fprintf(&b, "  Average Power: %s watts (%s W/kg)\n",
				fieldOrZero(iv, "average_watts"), fieldOrZero(iv, "average_watts_kg"))
			fmt.Fprintf(&b, "  Max Power: %s watts (%s W/kg)\n",
				fieldOrZero(iv, "max_watts"), fieldOrZero(iv, "max_watts_kg"))
			fmt.Fprintf(&b, "  Weighted Avg Power: %s watts\n", fieldOrZero(iv, "weighted_average_watts"))
			fmt.Fprintf(&b, "  Intensity: %s\n", fieldOrZero(iv, "intensity"))
			fmt.Fprintf(&b, "  Training Load: %s\n", fieldOrZero(iv, "training_load"))
			fmt.Fprintf(&b, "  Power Zone: %s (%s-%s watts)\n",
				field(iv, "zone"), fieldOrZero(iv, "zone_min_watts"), fieldOrZero(iv, "zone_max_watts"))
			b.WriteString("\nHeart Rate & Metabolic:\n")
			fmt.Fprintf(&b, "  Heart Rate: Avg %s, Min %s, Max %s bpm\n",
				fieldOrZero(iv, "average_heartrate"), fieldOrZero(iv, "min_heartrate"), fieldOrZero(iv, "max_heartrate"))
			fmt.Fprintf(&b, "  Decoupling: %s\n", fieldOrZero(iv, "decoupling"))
			b.WriteString("\nSpeed & Cadence:\n")
			fmt.Fprintf(&b, "  Speed: Avg %s, Min %s, Max %s m/s\n",
				fieldOrZero(iv, "average_speed"), fieldOrZero(iv, "min_speed"), fieldOrZero(iv, "max_speed"))
			fmt.Fprintf(&b, "  Cadence: Avg %s, Min %s, Max %s rpm\n",
				fieldOrZero(iv, "average_cadence"), fieldOrZero(iv, "min_cadence"), fieldOrZero(iv, "max_cadence"))
			b.WriteString("\nElevation & Environment:\n")
			fmt.Fprintf(&b, "  Elevation Gain: %s meters\n", fieldOrZero(iv, "total_elevation_gain"))
			fmt.Fprintf(&b, "  Gradient: %s%%\n", fieldOrZero(iv, "average_gradient"))
			fmt.Fprintf(&b, "  Temperature: %s°C\n\n", fieldOrZero(iv, "average_temp"))
		}
	}

	if groups := data.Get("icu_groups"); groups.IsArray() && len(groups.Array()) > 0 {
		b.WriteString("Interval Groups:\n\n")
		for i, g := range groups.Array() {
			id := g.Get("id").String()
			if id == "" {
				id = fmt.Sprintf("Group %d", i+1)
			}
			fmt.Fprintf(&b, "Group: %s (Contains %s intervals)\n", id, fieldOrZero(g, "count"))
			fmt.Fprintf(&b, "Duration: %s seconds (moving: %s seconds)\n",
				fieldOrZero(g, "elapsed_time"), fieldOrZero(g, "moving_time"))
			fmt.Fprintf(&b, "Distance: %s meters\n\n", fieldOrZero(g, "distance"))
			fmt.Fprintf(&b, "Power: Avg %s watts (%s W/kg), Max %s watts\n",
				fieldOrZero(g, "average_watts"), fieldOrZero(g, "average_watts_kg"), fieldOrZero(g, "max_watts"))
			fmt.Fprintf(&b, "Heart Rate: Avg %s, Max %s bpm\n",
				fieldOrZero(g, "average_heartrate"), fieldOrZero(g, "max_heartrate"))
			fmt.Fprintf(&b, "Speed: Avg %s, Max %s m/s\n",
				fieldOrZero(g, "average_speed"), fieldOrZero(g, "max_speed"))
			fmt.Fprintf(&b, "Cadence: Avg %s, Max %s rpm\n\n",
				fieldOrZero(g, "average_cadence"), fieldOrZero(g, "max_cadence"))
		}
	}

	return b.String()
}
