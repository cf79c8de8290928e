package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/vision"
)

const (
	SummaryNoData      = "Not enough data to generate a report."
	SummaryFailed      = "Error generating AI summary."
	SummaryUnavailable = "Summary unavailable."

	PlateMissing   = "N/A"
	ModelMissing   = "Not identified"
	UnknownUser    = "System"
	reportTagLimit = 4
	rankingLimit   = 10
	summaryModels  = 5
)

// recordReader is the subset of RecordService that ReportService requires.
type recordReader interface {
	ListPhotos(ctx context.Context) ([]*domain.PhotoEntry, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

type ReportService struct {
	records    recordReader
	summarizer vision.Summarizer
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewReportService(records recordReader, summarizer vision.Summarizer, timeout time.Duration, logger *slog.Logger) *ReportService {
	return &ReportService{
		records:    records,
		summarizer: summarizer,
		timeout:    timeout,
		logger:     logger.With("component", "reports"),
		now:        time.Now,
	}
}

type UserPhotoCount struct {
	Name   string
	Photos int
}

type RankedUser struct {
	User       *domain.User
	PhotoCount int
}

type DashboardStats struct {
	TotalPhotos  int
	ActiveUsers  int
	TodayPhotos  int
	PhotosByUser []UserPhotoCount
	Ranking      []RankedUser
}

func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	photos, err := s.records.ListPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	users, err := s.records.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	stats := &DashboardStats{TotalPhotos: len(photos)}

	today := s.now()
	perUser := make(map[string]int, len(users))
	for _, p := range photos {
		perUser[p.UserID]++
		if sameDay(p.Timestamp, today) {
			stats.TodayPhotos++
		}
	}

	ranking := make([]RankedUser, 0, len(users))
	for _, u := range users {
		if u.Status == domain.StatusActive {
			stats.ActiveUsers++
		}
		n := perUser[u.ID]
		if n > 0 {
			stats.PhotosByUser = append(stats.PhotosByUser, UserPhotoCount{Name: u.FirstName(), Photos: n})
		}
		ranking = append(ranking, RankedUser{User: u, PhotoCount: n})
	}

	slices.SortStableFunc(ranking, func(a, b RankedUser) int {
		return cmp.Compare(b.PhotoCount, a.PhotoCount)
	})
	if len(ranking) > rankingLimit {
		ranking = ranking[:rankingLimit]
	}
	stats.Ranking = ranking
	return stats, nil
}

func sameDay(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ReportCard is one photo as shown in the printable report.
type ReportCard struct {
	Photo         *domain.PhotoEntry
	Plate         string
	Model         string
	Tags          []string
	CollectorName string
}

// Report lists photos newest first with display fallbacks applied.
func (s *ReportService) Report(ctx context.Context) ([]ReportCard, error) {
	photos, err := s.records.ListPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	users, err := s.records.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	cards := make([]ReportCard, 0, len(photos))
	for i := len(photos) - 1; i >= 0; i-- {
		p := photos[i]
		card := ReportCard{
			Photo:         p,
			Plate:         cmp.Or(p.LicensePlate, PlateMissing),
			Model:         cmp.Or(p.VehicleModel, ModelMissing),
			Tags:          p.Tags[:min(len(p.Tags), reportTagLimit)],
			CollectorName: cmp.Or(names[p.UserID], UnknownUser),
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// SummaryPrompt builds the executive-summary request for photos in
// insertion order. photos must not be empty.
func SummaryPrompt(photos []*domain.PhotoEntry) string {
	models := make([]string, 0, summaryModels)
	for _, p := range photos[:min(len(photos), summaryModels)] {
		models = append(models, p.VehicleModel)
	}
	last := photos[len(photos)-1].Timestamp

	var b strings.Builder
	b.WriteString("Act as a fleet and vehicle analyst. Write an executive summary for a PDF report.\n\n")
	b.WriteString("Data:\n")
	fmt.Fprintf(&b, "- Total vehicles inspected: %d\n", len(photos))
	fmt.Fprintf(&b, "- Common models: %s\n", strings.Join(models, ", "))
	fmt.Fprintf(&b, "- Latest collection: %s\n\n", last.Format("2006-01-02"))
	b.WriteString("The tone must be professional and focused on vehicle auditing.")
	return b.String()
}

// Summary asks the summarizer for an executive summary. It always returns
// display text: failures become SummaryFailed.
func (s *ReportService) Summary(ctx context.Context) string {
	photos, err := s.records.ListPhotos(ctx)
	if err != nil {
		s.logger.Error("failed to list photos for summary", "error", err)
		return SummaryFailed
	}
	if len(photos) == 0 {
		return SummaryNoData
	}
	if s.summarizer == nil {
		return SummaryUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.summarizer.Summarize(ctx, SummaryPrompt(photos))
	if err != nil {
		s.logger.Error("failed to generate summary", "error", err, "duration", time.Since(start))
		return SummaryFailed
	}
	s.logger.Info("summary generated", "photos", len(photos), "duration", time.Since(start))

	if text = strings.TrimSpace(text); text == "" {
		return SummaryUnavailable
	}
	return text
}
