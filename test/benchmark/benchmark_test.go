package benchmark

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/portfolio-api/internal/commenttree"
	"github.com/portfolio-api/internal/config"
	"github.com/portfolio-api/internal/mocks"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/service"
	"github.com/portfolio-api/internal/validation"
	"github.com/portfolio-api/internal/vote"
	"github.com/rs/zerolog"
)

// generateThread builds n comments where every fourth one is top-level and
// the rest reply to an earlier comment, giving a mix of wide and deep threads
func generateThread(n int) ([]models.Comment, map[string]int, map[string]int) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	comments := make([]models.Comment, n)
	counts := make(map[string]int, n)
	mine := make(map[string]int, n/10)

	for i := 0; i < n; i++ {
		c := models.Comment{
			ID:        fmt.Sprintf("550e8400-e29b-41d4-a716-%012d", i),
			BlogSlug:  "hello-world",
			UserID:    fmt.Sprintf("user-%d", i%50),
			Content:   "benchmark comment",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			IsDeleted: i%37 == 0,
		}
		if i%4 != 0 {
			parent := comments[i/2].ID
			c.ParentID = &parent
		}
		comments[i] = c
		counts[c.ID] = i%11 - 5
		if i%10 == 0 {
			mine[c.ID] = 1
		}
	}
	return comments, counts, mine
}

// BenchmarkBuildTree benchmarks nesting a flat row set
func BenchmarkBuildTree(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		comments, counts, mine := generateThread(n)

		b.Run(fmt.Sprintf("comments=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				commenttree.Build(comments, counts, mine)
			}
			b.ReportMetric(float64(n*b.N)/b.Elapsed().Seconds(), "rows/sec")
		})
	}
}

// BenchmarkSortByVotes benchmarks the recursive per-level sort
func BenchmarkSortByVotes(b *testing.B) {
	comments, counts, mine := generateThread(1000)
	nodes := commenttree.Build(comments, counts, mine)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		commenttree.Sort(nodes, models.SortVotes)
		commenttree.Sort(nodes, models.SortNewest)
	}
}

// BenchmarkListTree benchmarks the full listing pipeline over mock storage
func BenchmarkListTree(b *testing.B) {
	repos, commentRepo, voteRepo, _ := mocks.NewRepositories()
	comments, _, _ := generateThread(1000)
	for i := range comments {
		c := comments[i]
		commentRepo.Add(&c)
		if i%3 == 0 {
			voteRepo.Set(c.ID, "reader", 1)
		}
	}

	cfg := &config.Config{Comments: config.CommentsConfig{DefaultLimit: 10, MaxLimit: 100, MaxLength: 5000}}
	services := service.NewServices(repos, cfg, zerolog.Nop(), nil)
	params := models.ListCommentsParams{BlogSlug: "hello-world", UserID: "reader", Page: 1, Limit: 10, Sort: models.SortVotes}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := services.Comment.ListTree(context.Background(), params); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkVoteTransition benchmarks the transition table lookup
func BenchmarkVoteTransition(b *testing.B) {
	states := []vote.State{vote.None, vote.Up, vote.Down}

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		requested := 1
		if i%2 == 1 {
			requested = -1
		}
		if _, err := vote.Transition(states[i%3], requested); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseListParams benchmarks query validation
func BenchmarkParseListParams(b *testing.B) {
	validator := validation.NewValidator(10, 100, 5000)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		validator.ParseListParams("hello-world", "3", "25", "votes")
	}
}

// BenchmarkExportNDJSON benchmarks streaming export performance
func BenchmarkExportNDJSON(b *testing.B) {
	repos, commentRepo, _, _ := mocks.NewRepositories()
	comments, _, _ := generateThread(1000)
	for i := range comments {
		c := comments[i]
		commentRepo.Add(&c)
	}
	services := service.NewServices(repos, &config.Config{}, zerolog.Nop(), nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		if err := services.Export.StreamComments(context.Background(), w, "", service.FormatNDJSON); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}
