package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/feelday/moodlog/pkg/entity"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendSteady    Trend = "steady"
	TrendDeclining Trend = "declining"
	TrendUnknown   Trend = "unknown"
)

// Averages that lack data are nil, never zero.
type InsightsSummary struct {
	EntryCount     int      `json:"entry_count"`
	WeekAverage    *float64 `json:"week_average,omitempty"`
	MonthAverage   *float64 `json:"month_average,omitempty"`
	MorningAverage *float64 `json:"morning_average,omitempty"`
	EveningAverage *float64 `json:"evening_average,omitempty"`
	Trend          Trend    `json:"trend"`
}

// InsightsService derives dashboard aggregates from a user's entry
// collection. Everything here is arithmetic over store queries.
type InsightsService struct {
	moods MoodServiceI
}

func NewInsightsService(moods MoodServiceI) *InsightsService {
	if moods == nil {
		log.Fatal("on insights service provided nil mood service")
	}
	return &InsightsService{
		moods: moods,
	}
}

// Treats shifts below half a point as noise.
const trendThreshold = 0.5

func (is *InsightsService) Summary(ctx context.Context, uid uuid.UUID) (*InsightsSummary, error) {
	store := is.moods.Store(ctx, uid)
	summary := &InsightsSummary{
		Trend: TrendUnknown,
	}
	if avg, ok := store.AverageInWindow(7); ok {
		summary.WeekAverage = &avg
	}
	if avg, ok := store.AverageInWindow(30); ok {
		summary.MonthAverage = &avg
	}
	entries := store.Entries()
	summary.EntryCount = len(entries)
	monthAgo := time.Now().AddDate(0, 0, -30)
	summary.MorningAverage = typeAverage(entries, entity.CheckInMorning, monthAgo)
	summary.EveningAverage = typeAverage(entries, entity.CheckInEvening, monthAgo)
	summary.Trend = trend(entries, time.Now())
	return summary, nil
}

func typeAverage(entries []entity.MoodEntry, checkInType entity.CheckInType, since time.Time) *float64 {
	sum, count := 0, 0
	for i := range entries {
		e := &entries[i]
		if e.CheckInType != checkInType || e.Timestamp.Before(since) || e.Rating == 0 {
			continue
		}
		sum += e.Rating
		count++
	}
	if count == 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}

// trend compares the trailing week against the week before it.
func trend(entries []entity.MoodEntry, now time.Time) Trend {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	recent := windowMean(entries, weekAgo, now)
	previous := windowMean(entries, twoWeeksAgo, weekAgo)
	if recent == nil || previous == nil {
		return TrendUnknown
	}
	switch {
	case *recent-*previous > trendThreshold:
		return TrendImproving
	case *previous-*recent > trendThreshold:
		return TrendDeclining
	}
	return TrendSteady
}

func windowMean(entries []entity.MoodEntry, from, to time.Time) *float64 {
	sum, count := 0, 0
	for i := range entries {
		e := &entries[i]
		if e.Timestamp.Before(from) || !e.Timestamp.Before(to) || e.Rating == 0 {
			continue
		}
		sum += e.Rating
		count++
	}
	if count == 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}
