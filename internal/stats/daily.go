package stats

// retainDays is how many UTC days of widest-resolution records are kept.
const retainDays = 7

const dayLayout = "2006-01-02"

func dateKey() string { return now().UTC().Format(dayLayout) }

// recordWidestLocked keeps w as today's record if it produced more outcomes
// (ties broken by states visited) and drops days past retention.
// Caller holds statsMu.
func recordWidestLocked(w WidestResolution) {
	key := dateKey()
	cur, ok := dailyMax[key]
	if !ok || w.Outcomes > cur.Outcomes || (w.Outcomes == cur.Outcomes && w.States > cur.States) {
		dailyMax[key] = w
	}
	if ok {
		return
	}
	cutoff := now().UTC().AddDate(0, 0, -retainDays).Format(dayLayout)
	for day := range dailyMax {
		if day <= cutoff {
			delete(dailyMax, day)
		}
	}
}

// GetWidestToday returns today's widest resolution, if any was recorded.
func GetWidestToday() (WidestResolution, bool) {
	statsMu.Lock()
	defer statsMu.Unlock()
	w, ok := dailyMax[dateKey()]
	return w, ok
}

// GetWidestByDay returns the retained daily records keyed by UTC date.
func GetWidestByDay() map[string]WidestResolution {
	statsMu.Lock()
	defer statsMu.Unlock()
	out := make(map[string]WidestResolution, len(dailyMax))
	for k, v := range dailyMax {
		out[k] = v
	}
	return out
}

// ResetDaily forgets every daily record.
func ResetDaily() {
	statsMu.Lock()
	defer statsMu.Unlock()
	clear(dailyMax)
}

// Reset zeroes the totals and daily records.
func Reset() {
	statsMu.Lock()
	defer statsMu.Unlock()
	totals = Totals{}
	clear(dailyMax)
}
