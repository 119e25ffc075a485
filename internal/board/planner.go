package board

import (
	"fmt"
	"sort"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// Assignment places one issue at a column and position. From is the column
// the issue occupied when the plan was made.
type Assignment struct {
	IssueID  int          `json:"issue_id"`
	From     model.Status `json:"from"`
	Status   model.Status `json:"status"`
	Position int64        `json:"position"`
}

// Column returns the issues with the given status in visual order: ascending
// position, ties broken by ID.
func Column(issues []*model.Issue, status model.Status) []*model.Issue {
	var col []*model.Issue
	for _, issue := range issues {
		if issue.Status == status {
			col = append(col, issue)
		}
	}
	sortColumn(col)
	return col
}

func sortColumn(col []*model.Issue) {
	sort.SliceStable(col, func(i, j int) bool {
		if col[i].Position != col[j].Position {
			return col[i].Position < col[j].Position
		}
		return col[i].ID < col[j].ID
	})
}

// Order sorts issues into board order: columns left to right, then visual
// order within each column.
func Order(issues []*model.Issue) []*model.Issue {
	out := make([]*model.Issue, 0, len(issues))
	for _, s := range model.Statuses() {
		out = append(out, Column(issues, s)...)
	}
	return out
}

func find(issues []*model.Issue, id int) *model.Issue {
	for _, issue := range issues {
		if issue.ID == id {
			return issue
		}
	}
	return nil
}

func without(col []*model.Issue, id int) []*model.Issue {
	out := make([]*model.Issue, 0, len(col))
	for _, issue := range col {
		if issue.ID != id {
			out = append(out, issue)
		}
	}
	return out
}

// PlanMove computes the assignments that move movedID to slot destIndex of
// the dest column. destIndex is clamped to the column; every issue at or
// after the slot shifts down one place. Touched columns are re-sequenced at
// Stride intervals and only issues whose column or position actually change
// are returned. Moving an issue onto the slot it already occupies yields an
// empty plan.
func PlanMove(issues []*model.Issue, movedID int, dest model.Status, destIndex int) ([]Assignment, error) {
	if err := model.ValidateStatus(dest); err != nil {
		return nil, err
	}
	moved := find(issues, movedID)
	if moved == nil {
		return nil, fmt.Errorf("issue %s: %w", model.FormatID(movedID), db.ErrNotFound)
	}

	destCol := without(Column(issues, dest), movedID)
	if destIndex < 0 {
		destIndex = 0
	}
	if destIndex > len(destCol) {
		destIndex = len(destCol)
	}

	if moved.Status == dest {
		current := Column(issues, dest)
		for i, issue := range current {
			if issue.ID == movedID && i == destIndex {
				return []Assignment{}, nil
			}
		}
	}

	ordered := make([]*model.Issue, 0, len(destCol)+1)
	ordered = append(ordered, destCol[:destIndex]...)
	ordered = append(ordered, moved)
	ordered = append(ordered, destCol[destIndex:]...)

	plan := resequence(ordered, dest, nil)
	if moved.Status != dest {
		plan = resequence(without(Column(issues, moved.Status), movedID), moved.Status, plan)
	}
	return plan, nil
}

// resequence assigns (i+1)*Stride to each issue of col and appends an
// assignment for every issue whose placement differs.
func resequence(col []*model.Issue, status model.Status, plan []Assignment) []Assignment {
	if plan == nil {
		plan = []Assignment{}
	}
	for i, issue := range col {
		pos := int64(i+1) * Stride
		if issue.Status != status || issue.Position != pos {
			plan = append(plan, Assignment{
				IssueID:  issue.ID,
				From:     issue.Status,
				Status:   status,
				Position: pos,
			})
		}
	}
	return plan
}

// PlanAppend moves movedID to the end of the dest column without touching
// any other issue. An issue already in dest stays where it is.
func PlanAppend(issues []*model.Issue, movedID int, dest model.Status) ([]Assignment, error) {
	if err := model.ValidateStatus(dest); err != nil {
		return nil, err
	}
	moved := find(issues, movedID)
	if moved == nil {
		return nil, fmt.Errorf("issue %s: %w", model.FormatID(movedID), db.ErrNotFound)
	}
	if moved.Status == dest {
		return []Assignment{}, nil
	}

	col := Column(issues, dest)
	positions := make([]int64, len(col))
	for i, issue := range col {
		positions[i] = issue.Position
	}
	return []Assignment{{
		IssueID:  movedID,
		From:     moved.Status,
		Status:   dest,
		Position: AppendPosition(positions),
	}}, nil
}
