package api

import (
	"context"

	"github.com/whispa-ai/whispad/internal/types"
)

// MapIssuePriority maps the four-level priority label onto the tracker's
// integer scale. The match is case-sensitive and exact; anything
// unrecognized defaults to 1.
func MapIssuePriority(priority string) int {
	switch priority {
	case "medium":
		return 2
	case "high":
		return 3
	case "urgent":
		return 4
	default:
		return 1
	}
}

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	TeamID      string   `json:"team_id"`
	APIKey      string   `json:"linear_api_key"`
	LabelIDs    []string `json:"label_ids"`
}

// IssueResult is the tracker's response to issue creation.
type IssueResult struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// CreateTrackerIssue files the generated note as an issue in the tracker.
func (c *Client) CreateTrackerIssue(ctx context.Context, fields types.IssueFields) (IssueResult, error) {
	token, err := c.bearer()
	if err != nil {
		return IssueResult{}, err
	}

	labelIDs := fields.LabelIDs
	if labelIDs == nil {
		labelIDs = []string{}
	}
	req := createIssueRequest{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    MapIssuePriority(fields.Priority),
		TeamID:      fields.TeamID,
		APIKey:      fields.APIKey,
		LabelIDs:    labelIDs,
	}

	var res IssueResult
	if err := c.postJSON(ctx, "/linear/create-issue", token, req, &res); err != nil {
		return IssueResult{}, err
	}
	return res, nil
}
