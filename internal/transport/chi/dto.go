package chi

import (
	"fmt"
	"time"

	"github.com/campusworks/studyrank/internal/domain"
	"github.com/campusworks/studyrank/internal/domain/resource"
)

// Error codes returned in the response body alongside the HTTP status.
const (
	errCodeBadRequest       = "bad_request"
	errCodeValidationFailed = "validation_failed"
	errCodeNotFound         = "not_found"
	errCodeResourceNotFound = "resource_not_found"
	errCodeUnknownCategory  = "unknown_category"
	errCodeUnauthorized     = "unauthorized"
	errCodeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// searchResult is one ranked or recommended resource in a response.
type searchResult struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Label       string  `json:"label"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Subject     string  `json:"subject,omitempty"`
	Faculty     string  `json:"faculty,omitempty"`
	Views       int64   `json:"views"`
	Downloads   int64   `json:"downloads"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []searchResult `json:"results"`
}

type searchGroupedResponse struct {
	Query  string                    `json:"query"`
	Total  int                       `json:"total"`
	Counts map[string]int            `json:"counts"`
	Groups map[string][]searchResult `json:"groups"`
}

type recommendResponse struct {
	Results []searchResult `json:"results"`
}

type bundleResponse struct {
	Trending     []searchResult `json:"trending"`
	Similar      []searchResult `json:"similar"`
	Personalized []searchResult `json:"personalized"`
}

type upsertResourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Subject     string `json:"subject"`
	Faculty     string `json:"faculty"`
	Status      string `json:"status"`
}

func (req *upsertResourceRequest) toDomain(category resource.Category, id string) (resource.Resource, error) {
	if _, err := resource.New(id, category, req.Title); err != nil {
		return resource.Resource{}, err
	}
	if len(req.Content) > resource.MaxContentSize {
		return resource.Resource{}, fmt.Errorf(
			"%w: content exceeds %d bytes", domain.ErrInvalidResource, resource.MaxContentSize,
		)
	}
	status := resource.Status(req.Status)
	switch status {
	case "":
		status = resource.StatusPending
	case resource.StatusPending, resource.StatusApproved, resource.StatusRejected:
	default:
		return resource.Resource{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidResource, req.Status)
	}
	return resource.Reconstruct(
		id, category, req.Title, req.Description, req.Content,
		req.Subject, req.Faculty, status, 0, 0, time.Time{},
	), nil
}

type recordActivityRequest struct {
	User string `json:"user"`
}

func scoredToResults(in []resource.Scored) []searchResult {
	out := make([]searchResult, 0, len(in))
	for i := range in {
		res := resourceToResult(in[i].Resource())
		res.Score = in[i].Score()
		res.Explanation = in[i].Explanation()
		out = append(out, res)
	}
	return out
}

func resourceToResult(res resource.Resource) searchResult {
	return searchResult{
		ID:          res.ID(),
		Category:    string(res.Category()),
		Label:       res.Category().Label(),
		Title:       res.Title(),
		Description: res.Description(),
		Subject:     res.Subject(),
		Faculty:     res.Faculty(),
		Views:       res.ViewCount(),
		Downloads:   res.DownloadCount(),
	}
}
