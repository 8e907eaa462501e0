package purse

import (
	"fmt"
	"strings"
	"time"

	"purse-circle/internal/core/domain"
)

// DefaultQuorumThreshold is the number of member approvals that lets a
// beneficiary claim an incomplete round.
const DefaultQuorumThreshold = 1

// custodyPrefix namespaces the ledger account holding a purse's in-flight donations
const custodyPrefix = "purse:"

// Params are the immutable terms of a purse
type Params struct {
	ContributionAmount int64
	MaxMembers         int
	RoundDuration      time.Duration
	Token              string
	PurseType          string
}

// Policy holds the tunable rules applied by a purse
type Policy struct {
	QuorumThreshold int
}

// Deps are the collaborators a purse calls out to
type Deps struct {
	Clock  Clock
	Ledger Ledger
	Policy Policy
}

// Donation is one recorded payment in the open round
type Donation struct {
	Donor       domain.Address
	Beneficiary domain.Address
	Amount      int64
	At          time.Time
}

// ClosedRound is an immutable entry in the round history
type ClosedRound struct {
	Index         int
	Beneficiary   domain.Address
	Donors        []domain.Address
	NonDonors     []domain.Address
	ClaimedAmount int64
	HeldAmount    int64
	Quorum        bool
	Outcome       domain.RoundOutcome
	ClosedAt      time.Time
}

// HeldFunds are donations of a lapsed round still in custody
type HeldFunds struct {
	RoundIndex  int
	Beneficiary domain.Address
	Amount      int64
}

// Purse is the state machine of a single rotating-fund circle.
// It is not safe for concurrent use; wrap it in a Handle.
type Purse struct {
	id        string
	creator   domain.Address
	params    Params
	createdAt time.Time

	// slots[i] holds the member at position i+1, "" when free
	slots      []domain.Address
	roundIndex int
	roundStart time.Time
	donations  []Donation
	approvals  []domain.Address
	history    []ClosedRound
	held       []HeldFunds

	deps    Deps
	pending []Event
}

// New builds a purse and seats the creator at startPosition.
// RoundDuration is already expressed as a duration; the factory converts days.
func New(id string, params Params, startPosition int, creator domain.Address, deps Deps) (*Purse, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if startPosition < 1 || startPosition > params.MaxMembers {
		return nil, fmt.Errorf("%w: start position %d outside 1..%d", domain.ErrInvalidParameters, startPosition, params.MaxMembers)
	}
	if creator == "" {
		return nil, fmt.Errorf("%w: creator is required", domain.ErrInvalidParameters)
	}
	deps = withDefaults(deps)

	now := deps.Clock.Now()
	p := &Purse{
		id:         id,
		creator:    creator,
		params:     params,
		createdAt:  now,
		slots:      make([]domain.Address, params.MaxMembers),
		roundIndex: 1,
		roundStart: now,
		deps:       deps,
	}
	p.slots[startPosition-1] = creator
	p.emit(MemberJoined{PurseID: id, Member: creator, Position: startPosition})
	return p, nil
}

func validateParams(params Params) error {
	switch {
	case params.ContributionAmount <= 0:
		return fmt.Errorf("%w: contribution amount must be positive", domain.ErrInvalidParameters)
	case params.MaxMembers < 2:
		return fmt.Errorf("%w: a purse needs at least 2 members", domain.ErrInvalidParameters)
	case params.RoundDuration <= 0:
		return fmt.Errorf("%w: round duration must be positive", domain.ErrInvalidParameters)
	case params.Token == "":
		return fmt.Errorf("%w: token reference is required", domain.ErrInvalidParameters)
	}
	return nil
}

func withDefaults(deps Deps) Deps {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Policy.QuorumThreshold < 1 {
		deps.Policy.QuorumThreshold = DefaultQuorumThreshold
	}
	return deps
}

// ID returns the purse identifier
func (p *Purse) ID() string { return p.id }

// Creator returns the address that created the purse
func (p *Purse) Creator() domain.Address { return p.creator }

// Params returns the purse terms
func (p *Purse) Params() Params { return p.params }

// CreatedAt returns the creation time
func (p *Purse) CreatedAt() time.Time { return p.createdAt }

// Custody returns the ledger account holding donations for this purse
func (p *Purse) Custody() domain.Address {
	return domain.Address(custodyPrefix + p.id)
}

// IsCustodyAddress reports whether addr names a purse custody account
func IsCustodyAddress(addr domain.Address) bool {
	return strings.HasPrefix(string(addr), custodyPrefix)
}

// QuorumThreshold returns the approvals needed for an override claim
func (p *Purse) QuorumThreshold() int { return p.deps.Policy.QuorumThreshold }

// Status reports the lifecycle state as of now
func (p *Purse) Status() domain.PurseStatus {
	index, _ := p.effectiveRound(p.deps.Clock.Now())
	if index > p.params.MaxMembers {
		return domain.PurseCompleted
	}
	if p.memberCount() == p.params.MaxMembers {
		return domain.PurseActive
	}
	if pos := p.positionOf(p.creator); pos > 0 && index >= pos {
		return domain.PurseActive
	}
	return domain.PurseOpen
}

// JoinPurse seats caller at position
func (p *Purse) JoinPurse(caller domain.Address, position int) error {
	p.catchUp()

	if p.completed() {
		return domain.ErrCircleCompleted
	}
	if caller == "" {
		return fmt.Errorf("%w: caller is required", domain.ErrInvalidParameters)
	}
	if p.positionOf(caller) > 0 {
		return domain.ErrAlreadyMember
	}
	if p.memberCount() >= p.params.MaxMembers {
		return domain.ErrPurseFull
	}
	if position < 1 || position > p.params.MaxMembers {
		return fmt.Errorf("%w: %d outside 1..%d", domain.ErrInvalidPosition, position, p.params.MaxMembers)
	}
	if position < p.roundIndex {
		return fmt.Errorf("%w: round %d has already closed", domain.ErrInvalidPosition, position)
	}
	if p.slots[position-1] != "" {
		return domain.ErrPositionTaken
	}

	p.slots[position-1] = caller
	p.emit(MemberJoined{PurseID: p.id, Member: caller, Position: position})
	return nil
}

// PurseMembers returns the roster in position order
func (p *Purse) PurseMembers() []domain.Address {
	members := make([]domain.Address, 0, p.memberCount())
	for _, addr := range p.slots {
		if addr != "" {
			members = append(members, addr)
		}
	}
	return members
}

// MemberPosition returns the slot held by addr, or 0
func (p *Purse) MemberPosition(addr domain.Address) int {
	return p.positionOf(addr)
}

// IsMember reports whether addr holds a slot
func (p *Purse) IsMember(addr domain.Address) bool {
	return p.positionOf(addr) > 0
}

func (p *Purse) positionOf(addr domain.Address) int {
	if addr == "" {
		return 0
	}
	for i, a := range p.slots {
		if a == addr {
			return i + 1
		}
	}
	return 0
}

func (p *Purse) memberCount() int {
	n := 0
	for _, a := range p.slots {
		if a != "" {
			n++
		}
	}
	return n
}

func (p *Purse) beneficiaryAt(index int) domain.Address {
	if index < 1 || index > len(p.slots) {
		return ""
	}
	return p.slots[index-1]
}

func (p *Purse) emit(e Event) {
	p.pending = append(p.pending, e)
}

// DrainEvents returns and clears the events produced since the last drain
func (p *Purse) DrainEvents() []Event {
	events := p.pending
	p.pending = nil
	return events
}
