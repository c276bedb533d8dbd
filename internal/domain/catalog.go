// internal/domain/catalog.go
package domain

import "github.com/goccy/go-json"

// MovieSummary - элемент списка фильмов (поиск, популярное).
type MovieSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
}

// MoviePage - страница результатов каталога.
type MoviePage struct {
	Results    []MovieSummary `json:"results"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// MovieDetail - карточка фильма. Дополнительные разделы (videos, credits,
// images, recommendations) передаются клиенту как есть.
type MovieDetail struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Overview        string          `json:"overview"`
	PosterPath      string          `json:"poster_path"`
	BackdropPath    string          `json:"backdrop_path"`
	ReleaseDate     string          `json:"release_date"`
	Runtime         int             `json:"runtime"`
	VoteAverage     float64         `json:"vote_average"`
	Genres          []Genre         `json:"genres"`
	Videos          json.RawMessage `json:"videos,omitempty"`
	Credits         json.RawMessage `json:"credits,omitempty"`
	Images          json.RawMessage `json:"images,omitempty"`
	Recommendations json.RawMessage `json:"recommendations,omitempty"`
}

// Genre - элемент справочника жанров.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
