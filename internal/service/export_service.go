package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/repository"
	"github.com/portfolio-api/internal/validation"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamComments streams every comment row, soft-deleted ones included, in
// the requested format. An empty blogSlug exports all posts.
func (s *exportService) StreamComments(ctx context.Context, w http.ResponseWriter, blogSlug, format string) error {
	s.log.Info().Str("format", format).Str("blog_slug", blogSlug).Msg("Starting comments export")

	switch format {
	case FormatNDJSON, "":
		return s.streamNDJSON(ctx, w, blogSlug)
	case FormatJSON:
		return s.streamJSON(ctx, w, blogSlug)
	case FormatCSV:
		return s.streamCSV(ctx, w, blogSlug)
	default:
		return invalid(validation.ValidationError{
			Field:   "format",
			Message: "unsupported format, must be one of: ndjson, json, csv",
			Value:   format,
		})
	}
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, blogSlug string) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Comment.StreamAll(ctx, blogSlug, func(comment *models.Comment) error {
		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Comments export completed")
	return err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, blogSlug string) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.json")

	w.Write([]byte("["))
	first := true

	err := s.repos.Comment.StreamAll(ctx, blogSlug, func(comment *models.Comment) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		w.Write(data)
		return nil
	})

	w.Write([]byte("]"))
	return err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, blogSlug string) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{
		"id", "blog_slug", "user_id", "parent_id", "content",
		"created_at", "updated_at", "is_edited", "is_deleted",
	})

	return s.repos.Comment.StreamAll(ctx, blogSlug, func(c *models.Comment) error {
		parentID := ""
		if c.ParentID != nil {
			parentID = *c.ParentID
		}
		return writer.Write([]string{
			c.ID,
			c.BlogSlug,
			c.UserID,
			parentID,
			c.Content,
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.UpdatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(c.IsEdited),
			strconv.FormatBool(c.IsDeleted),
		})
	})
}
