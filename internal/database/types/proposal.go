package types

import "github.com/robalyx/zoonas/internal/database/types/enum"

// Proposal asks the community to create a new zone. It is deleted once promoted.
type Proposal struct {
	ID          int64  `bun:",pk,autoincrement"   json:"id"`
	Slug        string `bun:",unique,notnull"     json:"slug"`
	Name        string `bun:",notnull"            json:"name"`
	Description string `bun:",notnull,default:''" json:"description"`
	Author
	Voted
	Created
}

// VoteKind implements Votable.
func (p *Proposal) VoteKind() enum.ItemKind {
	return enum.ItemKindProposal
}

// VotableID implements Votable.
func (p *Proposal) VotableID() int64 {
	return p.ID
}

// OwningZoneID implements Votable. Proposals do not belong to a zone yet.
func (p *Proposal) OwningZoneID() (int64, bool) {
	return 0, false
}

// Hidden implements Votable.
func (p *Proposal) Hidden() bool {
	return false
}

// Scores implements Votable.
func (p *Proposal) Scores() (*Voted, *ZoneScored) {
	return &p.Voted, nil
}

// ProposalProgress is the informational standing of an open proposal.
type ProposalProgress struct {
	Proposal      *Proposal `json:"proposal"`
	PositiveVotes int       `json:"positiveVotes"`
	AverageValue  float64   `json:"averageValue"`
	Score         float64   `json:"score"`
	Threshold     float64   `json:"threshold"`
	Percent       float64   `json:"percent"`
}

// PromotionResult describes what happened to a proposal after a vote was counted.
type PromotionResult struct {
	Status    enum.PromotionStatus `json:"status"`
	Zone      *Zone                `json:"zone,omitempty"`
	Score     float64              `json:"score"`
	Threshold float64              `json:"threshold"`
}
