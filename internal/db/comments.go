package db

import (
	"context"
	"fmt"

	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

func commentFromRecord(r Record) (*model.Comment, error) {
	createdAt, err := r.Time("created_at")
	if err != nil {
		return nil, err
	}
	return &model.Comment{
		ID:        r.Int("id"),
		IssueID:   r.Int("issue_id"),
		Body:      r.String("body"),
		Author:    r.String("author"),
		CreatedAt: createdAt,
	}, nil
}

func commentsFromRecords(recs []Record) ([]*model.Comment, error) {
	comments := make([]*model.Comment, 0, len(recs))
	for _, r := range recs {
		c, err := commentFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding comment %d: %w", r.Int("id"), err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// CreateComment inserts a new comment for an issue and records activity. The
// insert and activity log are wrapped in a single transaction so they succeed
// or fail together.
func CreateComment(ctx context.Context, gw Gateway, comment *model.Comment) (*model.Comment, error) {
	if err := comment.Normalize(); err != nil {
		return nil, err
	}
	var created *model.Comment
	err := gw.InTx(ctx, func(tx Gateway) error {
		if _, err := tx.Get(ctx, EntityIssue, comment.IssueID); err != nil {
			return err
		}

		now := nowString()
		rec, err := tx.Insert(ctx, EntityComment, Record{
			"issue_id":   comment.IssueID,
			"body":       comment.Body,
			"author":     comment.Author,
			"created_at": now,
		})
		if err != nil {
			return err
		}
		if created, err = commentFromRecord(rec); err != nil {
			return err
		}

		// Touch the issue so recently discussed cards surface in sorted lists.
		if _, err := tx.Update(ctx, EntityIssue, comment.IssueID, Record{"updated_at": now}); err != nil {
			return fmt.Errorf("updating issue timestamp: %w", err)
		}

		return RecordActivity(ctx, tx, comment.IssueID, "comment_added", "", comment.Body, comment.Author)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// InsertCommentWithID inserts a comment preserving its ID. Used by import.
func InsertCommentWithID(ctx context.Context, gw Gateway, c *model.Comment) error {
	_, err := gw.Insert(ctx, EntityComment, Record{
		"id":         c.ID,
		"issue_id":   c.IssueID,
		"body":       c.Body,
		"author":     c.Author,
		"created_at": formatTime(c.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("importing comment %d: %w", c.ID, err)
	}
	return nil
}

// ListComments returns an issue's comments, oldest first.
func ListComments(ctx context.Context, gw Gateway, issueID int) ([]*model.Comment, error) {
	recs, err := gw.List(ctx, EntityComment,
		[]Filter{Eq("issue_id", issueID)},
		[]Sort{Asc("created_at")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	return commentsFromRecords(recs)
}

// ListCommentsForIssues returns the comments of several issues, oldest first.
func ListCommentsForIssues(ctx context.Context, gw Gateway, issueIDs []int) ([]*model.Comment, error) {
	recs, err := gw.List(ctx, EntityComment,
		[]Filter{In("issue_id", issueIDs)},
		[]Sort{Asc("created_at")},
	)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	return commentsFromRecords(recs)
}

// ListAllComments returns every comment ordered by ID.
func ListAllComments(ctx context.Context, gw Gateway) ([]*model.Comment, error) {
	recs, err := gw.List(ctx, EntityComment, nil, []Sort{Asc("id")})
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	return commentsFromRecords(recs)
}

// GetComment retrieves a single comment.
func GetComment(ctx context.Context, gw Gateway, id int) (*model.Comment, error) {
	rec, err := gw.Get(ctx, EntityComment, id)
	if err != nil {
		return nil, err
	}
	return commentFromRecord(rec)
}

// DeleteComment removes a comment and records the removal on its issue.
func DeleteComment(ctx context.Context, gw Gateway, id int, changedBy string) error {
	return gw.InTx(ctx, func(tx Gateway) error {
		c, err := GetComment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, EntityComment, id); err != nil {
			return err
		}
		return RecordActivity(ctx, tx, c.IssueID, "comment_deleted", c.Body, "", changedBy)
	})
}
