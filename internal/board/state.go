package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// PersistenceError reports that a planned move could not be written. The
// board has already been rolled back when it is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persisting move: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Snapshot is a value copy of every issue on a board, keyed by ID.
type Snapshot map[int]model.Issue

// State is the in-memory mirror of one project's board. Moves are applied to
// it before they are persisted. A State has a single owner and is not safe
// for concurrent use.
type State struct {
	projectID int
	issues    map[int]*model.Issue

	// good is the board as of the last confirmed write. Plans applied after
	// it are outstanding until the latest one is confirmed or any one fails.
	good    Snapshot
	latest  uint64
	settled uint64

	log *slog.Logger
}

// NewState builds a board from the given issues. The issues are copied.
func NewState(projectID int, issues []*model.Issue) *State {
	s := &State{
		projectID: projectID,
		issues:    make(map[int]*model.Issue, len(issues)),
		log:       slog.Default().With("component", "board", "project", projectID),
	}
	for _, issue := range issues {
		s.issues[issue.ID] = issue.Clone()
	}
	s.good = s.Snapshot()
	return s
}

// Load reads a project's issues from the gateway into a new State.
func Load(ctx context.Context, gw db.Gateway, projectID int) (*State, error) {
	issues, err := db.ListIssues(ctx, gw, db.IssueFilter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	return NewState(projectID, issues), nil
}

// ProjectID returns the project the board belongs to.
func (s *State) ProjectID() int { return s.projectID }

// Issues returns copies of all issues in board order.
func (s *State) Issues() []*model.Issue {
	out := make([]*model.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		out = append(out, issue.Clone())
	}
	return Order(out)
}

// Column returns copies of one column's issues in visual order.
func (s *State) Column(status model.Status) []*model.Issue {
	return Column(s.Issues(), status)
}

// Get returns a copy of one issue.
func (s *State) Get(id int) (*model.Issue, bool) {
	issue, ok := s.issues[id]
	if !ok {
		return nil, false
	}
	return issue.Clone(), true
}

// Put adds or replaces an issue without going through a plan; used when an
// issue is created elsewhere.
func (s *State) Put(issue *model.Issue) {
	s.issues[issue.ID] = issue.Clone()
	if s.latest == s.settled {
		s.good = s.Snapshot()
	}
}

// Snapshot returns a deep copy of the current board.
func (s *State) Snapshot() Snapshot {
	snap := make(Snapshot, len(s.issues))
	for id, issue := range s.issues {
		snap[id] = *issue
	}
	return snap
}

// Rollback replaces the whole board with snap.
func (s *State) Rollback(snap Snapshot) {
	s.issues = make(map[int]*model.Issue, len(snap))
	for id, issue := range snap {
		c := issue
		s.issues[id] = &c
	}
}

// Plan computes the assignments for moving id to index within status.
func (s *State) Plan(id int, status model.Status, index int) ([]Assignment, error) {
	return PlanMove(s.list(), id, status, index)
}

// PlanAppend computes the assignment for moving id to the end of status.
func (s *State) PlanAppend(id int, status model.Status) ([]Assignment, error) {
	return PlanAppend(s.list(), id, status)
}

func (s *State) list() []*model.Issue {
	out := make([]*model.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		out = append(out, issue)
	}
	return out
}

// Apply mutates the board according to plan and returns the plan's sequence
// number. Nothing is applied if the plan names an unknown issue.
func (s *State) Apply(plan []Assignment) (uint64, error) {
	for _, a := range plan {
		if _, ok := s.issues[a.IssueID]; !ok {
			return 0, fmt.Errorf("applying plan: issue %s: %w", model.FormatID(a.IssueID), db.ErrNotFound)
		}
	}
	if s.latest == s.settled {
		s.good = s.Snapshot()
	}
	for _, a := range plan {
		issue := s.issues[a.IssueID]
		issue.Status = a.Status
		issue.Position = a.Position
	}
	s.latest++
	return s.latest, nil
}

// Pending reports whether any applied plan is still awaiting its commit.
func (s *State) Pending() bool { return s.latest > s.settled }

// Confirm marks the plan with sequence seq as persisted. Only the most
// recently applied plan can be confirmed; an older confirmation is ignored
// because a newer plan already superseded it. It reports whether the board's
// known-good snapshot advanced.
func (s *State) Confirm(seq uint64) bool {
	if seq != s.latest || seq <= s.settled {
		return false
	}
	s.good = s.Snapshot()
	s.settled = seq
	return true
}

// Fail reverts the board to its last known-good snapshot after the plan with
// sequence seq could not be persisted. Every outstanding plan is discarded.
// Failures for plans that were already settled are ignored.
func (s *State) Fail(seq uint64) bool {
	if seq <= s.settled || seq > s.latest {
		return false
	}
	s.log.Warn("rolling back board", "seq", seq, "discarded", s.latest-s.settled)
	s.Rollback(s.good)
	s.settled = s.latest
	return true
}

// Commit writes plan through the gateway in one transaction and records a
// status activity entry for each issue that changed column.
func Commit(ctx context.Context, gw db.Gateway, plan []Assignment, actor string) error {
	if len(plan) == 0 {
		return nil
	}
	return gw.InTx(ctx, func(tx db.Gateway) error {
		for _, a := range plan {
			if err := db.SetPlacement(ctx, tx, a.IssueID, a.Status, a.Position); err != nil {
				return err
			}
			if a.From != a.Status {
				if err := db.RecordActivity(ctx, tx, a.IssueID, "status", string(a.From), string(a.Status), actor); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Move plans, applies and commits a move in one call. On a failed commit the
// board is rolled back and a *PersistenceError is returned.
func (s *State) Move(ctx context.Context, gw db.Gateway, id int, status model.Status, index int, actor string) ([]Assignment, error) {
	plan, err := s.Plan(id, status, index)
	if err != nil {
		return nil, err
	}
	return plan, s.execute(ctx, gw, plan, actor)
}

// MoveToEnd is Move with the issue appended to the end of status.
func (s *State) MoveToEnd(ctx context.Context, gw db.Gateway, id int, status model.Status, actor string) ([]Assignment, error) {
	plan, err := s.PlanAppend(id, status)
	if err != nil {
		return nil, err
	}
	return plan, s.execute(ctx, gw, plan, actor)
}

func (s *State) execute(ctx context.Context, gw db.Gateway, plan []Assignment, actor string) error {
	if len(plan) == 0 {
		return nil
	}
	seq, err := s.Apply(plan)
	if err != nil {
		return err
	}
	if err := Commit(ctx, gw, plan, actor); err != nil {
		s.Fail(seq)
		return &PersistenceError{Err: err}
	}
	s.Confirm(seq)
	return nil
}
