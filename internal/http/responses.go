package httpserver

import (
	"time"

	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/service"
	"github.com/Clark-Hu/ratingz/internal/stats"
)

type movieResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Year       int       `json:"year"`
	PosterURL  *string   `json:"posterUrl"`
	ExternalID *string   `json:"externalId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type movieSummaryResponse struct {
	movieResponse
	AverageRating  float64 `json:"averageRating"`
	TotalRatings   int64   `json:"totalRatings"`
	TotalReactions int64   `json:"totalReactions"`
	ThumbsUp       int64   `json:"thumbsUp"`
	ThumbsDown     int64   `json:"thumbsDown"`
}

type movieListResponse struct {
	Items      []movieSummaryResponse `json:"items"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

type highlightsResponse struct {
	TopRated    []movieSummaryResponse `json:"topRated"`
	MostPopular []movieSummaryResponse `json:"mostPopular"`
	Recent      []movieSummaryResponse `json:"recent"`
}

type categoryAverageResponse struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
}

type distributionResponse struct {
	Score int   `json:"score"`
	Count int64 `json:"count"`
}

type statsResponse struct {
	TotalRatings   int64                     `json:"totalRatings"`
	AverageOverall float64                   `json:"averageOverall"`
	Categories     []categoryAverageResponse `json:"categories"`
	Distribution   []distributionResponse    `json:"distribution"`
	ThumbsUp       int64                     `json:"thumbsUp"`
	ThumbsDown     int64                     `json:"thumbsDown"`
}

type movieDetailResponse struct {
	Movie movieResponse `json:"movie"`
	Stats statsResponse `json:"stats"`
}

type ratingResponse struct {
	ID          string    `json:"id"`
	MovieID     string    `json:"movieId"`
	Overall     int       `json:"overall"`
	Story       *int      `json:"story"`
	Screenplay  *int      `json:"screenplay"`
	Direction   *int      `json:"direction"`
	Performance *int      `json:"performance"`
	Music       *int      `json:"music"`
	EditCount   int       `json:"editCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type reactionResponse struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movieId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type reactionResultResponse struct {
	Reaction *reactionResponse `json:"reaction"`
	Outcome  string            `json:"outcome"`
}

type mineResponse struct {
	Policy   string            `json:"policy"`
	Rating   *ratingResponse   `json:"rating"`
	Reaction *reactionResponse `json:"reaction"`
}

type ratedMovieResponse struct {
	Rating ratingResponse `json:"rating"`
	Movie  movieResponse  `json:"movie"`
}

type reactedMovieResponse struct {
	Reaction reactionResponse `json:"reaction"`
	Movie    movieResponse    `json:"movie"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	FullName  *string   `json:"fullName"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type profileSummaryResponse struct {
	TotalRatings   int64   `json:"totalRatings"`
	AverageRating  float64 `json:"averageRating"`
	TotalReactions int64   `json:"totalReactions"`
	ThumbsUp       int64   `json:"thumbsUp"`
	ThumbsDown     int64   `json:"thumbsDown"`
}

type meResponse struct {
	Profile profileResponse        `json:"profile"`
	Summary profileSummaryResponse `json:"summary"`
}

type deviceResponse struct {
	DeviceID string `json:"deviceId"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type totalsResponse struct {
	Movies        int64   `json:"movies"`
	Ratings       int64   `json:"ratings"`
	Reactions     int64   `json:"reactions"`
	AverageRating float64 `json:"averageRating"`
}

type dashboardResponse struct {
	Totals totalsResponse         `json:"totals"`
	Movies []movieSummaryResponse `json:"movies"`
}

type decadeResponse struct {
	Decade string `json:"decade"`
	Count  int    `json:"count"`
}

type bandResponse struct {
	Band  string `json:"band"`
	Count int    `json:"count"`
}

type analyticsResponse struct {
	Totals    totalsResponse         `json:"totals"`
	TopRated  []movieSummaryResponse `json:"topRated"`
	MostRated []movieSummaryResponse `json:"mostRated"`
	ByDecade  []decadeResponse       `json:"byDecade"`
	Bands     []bandResponse         `json:"bands"`
}

func toMovieResponse(m domain.Movie) movieResponse {
	return movieResponse{
		ID:         m.ID,
		Title:      m.Title,
		Year:       m.Year,
		PosterURL:  m.PosterURL,
		ExternalID: m.ExternalID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toSummaryResponses(items []domain.MovieSummary) []movieSummaryResponse {
	out := make([]movieSummaryResponse, 0, len(items))
	for _, m := range items {
		out = append(out, movieSummaryResponse{
			movieResponse:  toMovieResponse(m.Movie),
			AverageRating:  m.AverageRating,
			TotalRatings:   m.TotalRatings,
			TotalReactions: m.TotalReactions,
			ThumbsUp:       m.ThumbsUp,
			ThumbsDown:     m.ThumbsDown,
		})
	}
	return out
}

func toStatsResponse(st domain.MovieStats) statsResponse {
	resp := statsResponse{
		TotalRatings:   st.TotalRatings,
		AverageOverall: st.AverageOverall,
		Categories:     make([]categoryAverageResponse, 0, len(st.Categories)),
		Distribution:   make([]distributionResponse, 0, len(st.Distribution)),
		ThumbsUp:       st.ThumbsUp,
		ThumbsDown:     st.ThumbsDown,
	}
	for _, c := range st.Categories {
		resp.Categories = append(resp.Categories, categoryAverageResponse{
			Category: string(c.Category),
			Average:  c.Average,
			Count:    c.Count,
		})
	}
	for i, n := range st.Distribution {
		resp.Distribution = append(resp.Distribution, distributionResponse{Score: i + domain.MinScore, Count: n})
	}
	return resp
}

func toRatingResponse(r domain.Rating) ratingResponse {
	return ratingResponse{
		ID:          r.ID,
		MovieID:     r.MovieID,
		Overall:     r.Scores.Overall,
		Story:       r.Scores.Story,
		Screenplay:  r.Scores.Screenplay,
		Direction:   r.Scores.Direction,
		Performance: r.Scores.Performance,
		Music:       r.Scores.Music,
		EditCount:   r.EditCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toReactionResponse(r domain.Reaction) reactionResponse {
	return reactionResponse{
		ID:        r.ID,
		MovieID:   r.MovieID,
		Type:      string(r.Kind),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toProfileResponse(p domain.UserProfile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toTotalsResponse(t domain.Totals) totalsResponse {
	return totalsResponse{
		Movies:        t.Movies,
		Ratings:       t.Ratings,
		Reactions:     t.Reactions,
		AverageRating: t.AverageRating,
	}
}

func toAnalyticsResponse(a service.Analytics) analyticsResponse {
	resp := analyticsResponse{
		Totals:    toTotalsResponse(a.Totals),
		TopRated:  toSummaryResponses(a.TopRated),
		MostRated: toSummaryResponses(a.MostRated),
		ByDecade:  make([]decadeResponse, 0, len(a.ByDecade)),
		Bands:     make([]bandResponse, 0, len(a.Bands)),
	}
	for _, d := range a.ByDecade {
		resp.ByDecade = append(resp.ByDecade, decadeResponse{Decade: d.Decade, Count: d.Count})
	}
	for _, b := range a.Bands {
		resp.Bands = append(resp.Bands, toBandResponse(b))
	}
	return resp
}

func toBandResponse(b stats.BandCount) bandResponse {
	return bandResponse{Band: b.Label, Count: b.Count}
}
