package types

import "github.com/robalyx/zoonas/internal/database/types/enum"

// Submission is a link posted to a zone.
type Submission struct {
	ID           int64  `bun:",pk,autoincrement"   json:"id"`
	ZoneID       int64  `bun:",notnull"            json:"zoneId"`
	Title        string `bun:",notnull"            json:"title"`
	Link         string `bun:",notnull,default:''" json:"link"`
	Slug         string `bun:",notnull"            json:"slug"`
	CommentCount int    `bun:",notnull,default:0"  json:"commentCount"`
	Author
	Voted
	ZoneScored
	Created
	Erased
	Rejected
	Private
}

// VoteKind implements Votable.
func (s *Submission) VoteKind() enum.ItemKind {
	return enum.ItemKindSubmission
}

// VotableID implements Votable.
func (s *Submission) VotableID() int64 {
	return s.ID
}

// OwningZoneID implements Votable.
func (s *Submission) OwningZoneID() (int64, bool) {
	return s.ZoneID, true
}

// Hidden implements Votable.
func (s *Submission) Hidden() bool {
	return s.IsPrivate
}

// Scores implements Votable.
func (s *Submission) Scores() (*Voted, *ZoneScored) {
	return &s.Voted, &s.ZoneScored
}

// Comment is a reply on a submission, optionally nested under another comment.
type Comment struct {
	ID           int64  `bun:",pk,autoincrement" json:"id"`
	SubmissionID int64  `bun:",notnull"          json:"submissionId"`
	ParentID     *int64 `bun:",nullzero"         json:"parentId,omitempty"`
	Body         string `bun:",notnull"          json:"body"`
	Author
	Voted
	Created
	Rejected
	Private
}

// VoteKind implements Votable.
func (c *Comment) VoteKind() enum.ItemKind {
	return enum.ItemKindComment
}

// VotableID implements Votable.
func (c *Comment) VotableID() int64 {
	return c.ID
}

// OwningZoneID implements Votable. Comments do not feed zone reputation.
func (c *Comment) OwningZoneID() (int64, bool) {
	return 0, false
}

// Hidden implements Votable.
func (c *Comment) Hidden() bool {
	return c.IsPrivate
}

// Scores implements Votable.
func (c *Comment) Scores() (*Voted, *ZoneScored) {
	return &c.Voted, nil
}
