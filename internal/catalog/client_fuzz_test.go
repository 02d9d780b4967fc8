package catalog

import (
	"net/url"
	"testing"
)

func FuzzConvertToResult(f *testing.F) {
	f.Add("tt0133093", "The Matrix", "1999", "https://img.example/matrix.jpg", "tt0133093")
	f.Add("tt0000001", "", "2010–2012", "N/A", "")
	f.Add("x", "t", "abc", "javascript:alert(1)", "y")

	f.Fuzz(func(t *testing.T, externalID, title, year, poster, imdbID string) {
		result := convertToResult(externalID, apiResponse{
			Title:    title,
			Year:     year,
			Poster:   poster,
			IMDbID:   imdbID,
			Response: "True",
		})
		if result == nil {
			t.Fatalf("convertToResult returned nil")
		}
		if imdbID == "" && result.ExternalID != externalID {
			t.Fatalf("external id = %q, want %q", result.ExternalID, externalID)
		}
		if result.Year != nil && *result.Year <= 0 {
			t.Fatalf("year should be positive, got %d", *result.Year)
		}
		if result.PosterURL != nil {
			u, err := url.Parse(*result.PosterURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				t.Fatalf("poster %q should be an http(s) url", *result.PosterURL)
			}
		}
	})
}
