package bundlecache

import (
	"time"

	"github.com/campusworks/studyrank/internal/domain/resource"
)

// bundleDTO is the wire form of a cached bundle.
type bundleDTO struct {
	Trending     []scoredDTO `json:"trending"`
	Similar      []scoredDTO `json:"similar"`
	Personalized []scoredDTO `json:"personalized"`
}

type scoredDTO struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Content       string    `json:"content,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Faculty       string    `json:"faculty,omitempty"`
	Status        string    `json:"status"`
	ViewCount     int64     `json:"view_count"`
	DownloadCount int64     `json:"download_count"`
	LastViewed    time.Time `json:"last_viewed,omitempty"`
	Score         float64   `json:"score"`
	Explanation   string    `json:"explanation"`
}

func fromDomain(b resource.Bundle) bundleDTO {
	return bundleDTO{
		Trending:     scoredToDTO(b.Trending),
		Similar:      scoredToDTO(b.Similar),
		Personalized: scoredToDTO(b.Personalized),
	}
}

func (d bundleDTO) toDomain() resource.Bundle {
	return resource.Bundle{
		Trending:     scoredFromDTO(d.Trending),
		Similar:      scoredFromDTO(d.Similar),
		Personalized: scoredFromDTO(d.Personalized),
	}
}

func scoredToDTO(in []resource.Scored) []scoredDTO {
	out := make([]scoredDTO, 0, len(in))
	for i := range in {
		res := in[i].Resource()
		out = append(out, scoredDTO{
			ID:            res.ID(),
			Category:      string(res.Category()),
			Title:         res.Title(),
			Description:   res.Description(),
			Content:       res.Content(),
			Subject:       res.Subject(),
			Faculty:       res.Faculty(),
			Status:        string(res.Status()),
			ViewCount:     res.ViewCount(),
			DownloadCount: res.DownloadCount(),
			LastViewed:    res.LastViewed(),
			Score:         in[i].Score(),
			Explanation:   in[i].Explanation(),
		})
	}
	return out
}

func scoredFromDTO(in []scoredDTO) []resource.Scored {
	out := make([]resource.Scored, 0, len(in))
	for _, d := range in {
		res := resource.Reconstruct(
			d.ID, resource.Category(d.Category),
			d.Title, d.Description, d.Content, d.Subject, d.Faculty,
			resource.Status(d.Status),
			d.ViewCount, d.DownloadCount, d.LastViewed,
		)
		out = append(out, resource.NewScored(res, d.Score, d.Explanation))
	}
	return out
}
