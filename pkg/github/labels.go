package github

import (
	"context"
	"fmt"
)

// labelNode is the label selection set
type labelNode struct {
	ID          string
	Name        string
	Color       string
	Description string
}

func (n labelNode) toLabel() Label {
	return Label{ID: n.ID, Name: n.Name, Color: n.Color, Description: n.Description}
}

// LabelsQuery fetches the labels connection of a repository
type LabelsQuery struct {
	*RepositoryQuery
	PageSize int
}

// NewLabelsQuery creates a labels query for the given repository
func NewLabelsQuery(exec Executor, params RepositoryParams) (*LabelsQuery, error) {
	base, err := newRepositoryQuery(exec, params)
	if err != nil {
		return nil, err
	}
	return &LabelsQuery{RepositoryQuery: base, PageSize: DefaultPageSize}, nil
}

// Page fetches one page of labels starting after the given cursor
func (q *LabelsQuery) Page(ctx context.Context, after string) (*Connection[Label], error) {
	var query struct {
		Repository *struct {
			Labels struct {
				Nodes      []labelNode
				PageInfo   pageInfoNode
				TotalCount int
			} `graphql:"labels(first: $first, after: $after)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	if err := q.Execute(ctx, "labels", &query, pageVariables(q.PageSize, after)); err != nil {
		return nil, err
	}
	if query.Repository == nil {
		return nil, fmt.Errorf("labels in %s: repository not returned", q.params)
	}

	conn := &Connection[Label]{
		Nodes:      make([]Label, 0, len(query.Repository.Labels.Nodes)),
		PageInfo:   query.Repository.Labels.PageInfo.toPageInfo(),
		TotalCount: query.Repository.Labels.TotalCount,
	}
	for _, node := range query.Repository.Labels.Nodes {
		conn.Nodes = append(conn.Nodes, node.toLabel())
	}
	return conn, nil
}

// All fetches every label of the repository
func (q *LabelsQuery) All(ctx context.Context) ([]Label, error) {
	return collectPages(ctx, q.Page)
}

// CreateLabel creates a label in the repository identified by input.RepositoryID
func (c *Client) CreateLabel(ctx context.Context, input CreateLabelInput) (*Label, error) {
	var m struct {
		CreateLabel *struct {
			Label labelNode
		} `graphql:"createLabel(input: $input)"`
	}

	resource := fmt.Sprintf("label %s", input.Name)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return nil, err
	}
	if m.CreateLabel == nil {
		return nil, fmt.Errorf("%s: empty createLabel payload", resource)
	}
	label := m.CreateLabel.Label.toLabel()
	return &label, nil
}

// UpdateLabel updates the label identified by input.ID
func (c *Client) UpdateLabel(ctx context.Context, input UpdateLabelInput) (*Label, error) {
	var m struct {
		UpdateLabel *struct {
			Label labelNode
		} `graphql:"updateLabel(input: $input)"`
	}

	resource := fmt.Sprintf("label %s", input.ID)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return nil, err
	}
	if m.UpdateLabel == nil {
		return nil, fmt.Errorf("%s: empty updateLabel payload", resource)
	}
	label := m.UpdateLabel.Label.toLabel()
	return &label, nil
}

// DeleteLabel deletes the label identified by input.ID and returns the
// client mutation id echoed by the server
func (c *Client) DeleteLabel(ctx context.Context, input DeleteLabelInput) (string, error) {
	var m struct {
		DeleteLabel *struct {
			ClientMutationID string
		} `graphql:"deleteLabel(input: $input)"`
	}

	resource := fmt.Sprintf("label %s", input.ID)
	if err := c.Mutate(ctx, resource, &m, map[string]any{"input": input}); err != nil {
		return "", err
	}
	if m.DeleteLabel == nil {
		return "", fmt.Errorf("%s: empty deleteLabel payload", resource)
	}
	return m.DeleteLabel.ClientMutationID, nil
}

// ListLabels returns all labels of a repository
func (c *Client) ListLabels(ctx context.Context, params RepositoryParams) ([]Label, error) {
	q, err := NewLabelsQuery(c, params)
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}
