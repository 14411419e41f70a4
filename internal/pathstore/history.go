package pathstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgallion1/stepwise/internal/parser"
)

// ErrDisabled is returned by History methods when no store is configured.
var ErrDisabled = errors.New("history store is not configured")

// Entry is one completed job as kept in a student's history.
type Entry struct {
	JobID     string                `json:"job_id"`
	Mode      string                `json:"mode"`
	Model     string                `json:"model"`
	CreatedAt time.Time             `json:"created_at"`
	Solve     *parser.SolveResponse `json:"solve,omitempty"`
	Improve   *parser.ImproveResult `json:"improve,omitempty"`
}

// History stores completed jobs under homework/users/{user}/solutions. A nil
// *History is valid: Save does nothing and reads return ErrDisabled.
type History struct {
	client *Client
}

func NewHistory(client *Client) *History {
	return &History{client: client}
}

func solutionsPrefix(userID string) string {
	return fmt.Sprintf("homework/users/%s/solutions", userID)
}

// SolutionPath returns the key for one stored job.
func SolutionPath(userID, jobID string) string {
	return solutionsPrefix(userID) + "/" + jobID
}

// Save writes e to the user's history.
func (h *History) Save(ctx context.Context, userID string, e Entry) error {
	if h == nil {
		return nil
	}
	return h.client.PutNode(ctx, SolutionPath(userID, e.JobID), NodeRequest{
		Value:      e,
		MemoryType: "episodic",
		Salience:   0.3,
		Source:     "stepwise:" + e.Mode,
	})
}

// List returns up to limit entries, newest first. Entries that cannot be
// decoded are skipped.
func (h *History) List(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if h == nil {
		return nil, ErrDisabled
	}
	nodes, err := h.client.ListChildren(ctx, solutionsPrefix(userID), limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		var e Entry
		if err := json.Unmarshal(n.Value, &e); err != nil || e.JobID == "" {
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Get returns one entry, or (nil, nil) if it does not exist.
func (h *History) Get(ctx context.Context, userID, jobID string) (*Entry, error) {
	if h == nil {
		return nil, ErrDisabled
	}
	node, err := h.client.GetNode(ctx, SolutionPath(userID, jobID))
	if err != nil || node == nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(node.Value, &e); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &e, nil
}

// Delete removes one entry from the user's history.
func (h *History) Delete(ctx context.Context, userID, jobID string) error {
	if h == nil {
		return ErrDisabled
	}
	return h.client.DeleteNode(ctx, SolutionPath(userID, jobID), false)
}
