package main

import (
	"net/http"

	"github.com/pefman/raid-odds/internal/stats"
)

// GET /api/stats
func GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, stats.GetTotals())
}

// GET /api/stats/widest/today
func GetWidestTodayHandler(w http.ResponseWriter, r *http.Request) {
	widest, ok := stats.GetWidestToday()
	if !ok {
		writeJSON(w, map[string]interface{}{})
		return
	}
	writeJSON(w, widest)
}

// GET /api/stats/widest
func GetWidestByDayHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, stats.GetWidestByDay())
}
