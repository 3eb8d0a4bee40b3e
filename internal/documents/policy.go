package documents

import "time"

// Ability names an action the policy can gate.
type Ability string

const (
	AbilityDownload Ability = "download"
	AbilityDestroy  Ability = "destroy"
)

// Policy decides whether a user may download or destroy a document.
// Checks return plain booleans; absence of permission is never an error.
type Policy struct {
	// EditableTimeLimit bounds how long after creation a document stays
	// destroyable by its creator. Inclusive.
	EditableTimeLimit time.Duration

	// Now is the clock used for the age check; nil means time.Now.
	Now func() time.Time
}

// NewPolicy builds a policy with the editable window given in hours.
func NewPolicy(editableTimeLimitHours int) *Policy {
	return &Policy{EditableTimeLimit: time.Duration(editableTimeLimitHours) * time.Hour}
}

// Before grants every ability to administrators. It runs ahead of the
// per-ability checks.
func (p *Policy) Before(user User) bool {
	return user.IsAdmin()
}

// Allows evaluates Before first, then the rule for the ability.
func (p *Policy) Allows(user User, ability Ability, doc Document) bool {
	if p.Before(user) {
		return true
	}
	switch ability {
	case AbilityDownload:
		return p.CanDownload(user, doc)
	case AbilityDestroy:
		return p.CanDestroy(user, doc)
	default:
		return false
	}
}

// CanDownload reports whether the user created the document.
func (p *Policy) CanDownload(user User, doc Document) bool {
	return p.userOwnsDocument(user, doc)
}

// CanDestroy reports whether the user created the document and it is
// still within the editable window.
func (p *Policy) CanDestroy(user User, doc Document) bool {
	return p.userOwnsDocument(user, doc) && p.documentIsRecent(doc)
}

func (p *Policy) userOwnsDocument(user User, doc Document) bool {
	return user.ID != "" && user.ID == doc.CreatedBy
}

func (p *Policy) documentIsRecent(doc Document) bool {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return now().Sub(doc.CreatedAt) <= p.EditableTimeLimit
}
